package fastview

import (
	channerics "github.com/niceyeti/channerics/channels"
)

// pending holds element updates keyed by ele-id, the latest update per
// element winning. Updates are idempotent, so only the latest matters.
type pending map[string]EleUpdate

func (p pending) merge(updates []EleUpdate) {
	for _, update := range updates {
		p[update.EleId] = update
	}
}

func (p pending) values() []EleUpdate {
	batch := make([]EleUpdate, 0, len(p))
	for _, update := range p {
		batch = append(batch, update)
	}
	return batch
}

// drain empties the set into a slice.
func (p pending) drain() []EleUpdate {
	batch := p.values()
	clear(p)
	return batch
}

// FanIn merges the views' ele-updates into one channel. Updates are held
// until a reader is ready, so the views are drained even while no page is
// connected, and each read returns everything pending.
func FanIn(
	done <-chan struct{},
	views []ViewComponent,
) <-chan []EleUpdate {
	inputs := make([]<-chan []EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return hold(done, channerics.Merge(done, inputs...))
}

func hold(
	done <-chan struct{},
	source <-chan []EleUpdate,
) <-chan []EleUpdate {
	output := make(chan []EleUpdate)

	go func() {
		defer close(output)

		held := pending{}
		for {
			var out chan<- []EleUpdate
			var batch []EleUpdate
			if len(held) > 0 {
				out = output
				batch = held.values()
			}

			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					return
				}
				held.merge(updates)
			case out <- batch:
				held = pending{}
			}
		}
	}()

	return output
}
