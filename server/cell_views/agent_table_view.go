package cell_views

import (
	"fmt"
	"html/template"

	"logistics/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// AgentTable lists every agent's state, held action and task. Rows are fixed
// by the initial board; agents added later are not shown.
type AgentTable struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewAgentTable(
	done <-chan struct{},
	boards <-chan Board,
) (at *AgentTable) {
	at = &AgentTable{id: "agenttable"}
	at.updates = channerics.Convert(done, boards, at.onUpdate)
	return
}

func (at *AgentTable) Updates() <-chan []fastview.EleUpdate {
	return at.updates
}

func agentFieldId(id int, field string) string {
	return fmt.Sprintf("agent-%d-%s", id, field)
}

func rowStyle(row AgentRow) string {
	if row.Crashed {
		return "color: crimson;"
	}
	return "color: black;"
}

func (at *AgentTable) onUpdate(board Board) (ops []fastview.EleUpdate) {
	for _, row := range board.Agents {
		ops = append(ops,
			fastview.Attr(fmt.Sprintf("agent-%d", row.ID), "style", rowStyle(row)),
			fastview.TextContent(agentFieldId(row.ID, "state"), row.State),
			fastview.TextContent(agentFieldId(row.ID, "action"), row.Action),
			fastview.TextContent(agentFieldId(row.ID, "intensity"), row.Intensity),
			fastview.TextContent(agentFieldId(row.ID, "task"), row.Task),
			fastview.TextContent(agentFieldId(row.ID, "deliveries"), row.Deliveries))
	}
	return
}

func (at *AgentTable) Parse(
	t *template.Template,
) (name string, err error) {
	name = at.id
	addedMap := template.FuncMap{
		"agentFill": agentFill,
		"rowStyle": func(row AgentRow) template.CSS {
			return template.CSS(rowStyle(row))
		},
	}
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<table id="` + at.id + `" style="font-family: monospace; border-spacing: 12px 2px;">
				<tr>
					<th></th><th>id</th><th>automation</th><th>state</th><th>action</th>
					<th>intensity</th><th>task</th><th>deliveries</th>
				</tr>
				{{ range $row := .Agents }}
				<tr id="agent-{{ $row.ID }}" style="{{ rowStyle $row }}">
					<td style="background: {{ agentFill $row.ID }}; width: 12px;"></td>
					<td>{{ $row.ID }}</td>
					<td>{{ $row.Automation }}</td>
					<td id="agent-{{ $row.ID }}-state">{{ $row.State }}</td>
					<td id="agent-{{ $row.ID }}-action">{{ $row.Action }}</td>
					<td id="agent-{{ $row.ID }}-intensity">{{ $row.Intensity }}</td>
					<td id="agent-{{ $row.ID }}-task">{{ $row.Task }}</td>
					<td id="agent-{{ $row.ID }}-deliveries">{{ $row.Deliveries }}</td>
				</tr>
				{{ end }}
			</table>
		</div>
		{{ end }}`)
	return
}
