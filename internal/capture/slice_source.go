package capture

import "context"

// SliceSource replays a fixed sequence of Messages, one at a time, for
// deterministic tests and scenario replay. It never blocks on real I/O.
type SliceSource struct {
	Messages []Message
}

// Run emits each configured Message in order and then closes the channel,
// unless ctx is cancelled first.
func (s *SliceSource) Run(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for _, m := range s.Messages {
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// BatchesOf splits data into fixed-size Samples messages, batchSize samples
// each, with a final short batch if data's length isn't a multiple of
// batchSize.
func BatchesOf(data []float32, batchSize int) []Message {
	var out []Message
	for start := 0; start < len(data); start += batchSize {
		end := start + batchSize
		if end > len(data) {
			end = len(data)
		}
		out = append(out, Samples{Data: data[start:end]})
	}
	return out
}
