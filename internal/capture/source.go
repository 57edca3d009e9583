package capture

import "context"

// Source produces a stream of Messages until ctx is cancelled, at which
// point it closes its returned channel and releases any device resources it
// owns.
type Source interface {
	Run(ctx context.Context) (<-chan Message, error)
}
