package repository

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"servicemarket/pkg/logger"
)

// snapshotListener drains a query's snapshot iterator on its own goroutine.
// Callbacks run serially on that goroutine, so Stop must not be called from
// inside one.
type snapshotListener struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (l *snapshotListener) Stop() {
	l.once.Do(l.cancel)
	<-l.done
}

func listenQuery[T any](
	ctx context.Context,
	q firestore.Query,
	decode func(*firestore.DocumentSnapshot) (T, error),
	fn func([]T, error),
) *snapshotListener {
	ctx, cancel := context.WithCancel(ctx)
	l := &snapshotListener{cancel: cancel, done: make(chan struct{})}
	it := q.Snapshots(ctx)

	go func() {
		defer close(l.done)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				fn(nil, err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				fn(nil, err)
				continue
			}
			fn(decodeAll(docs, decode), nil)
		}
	}()

	return l
}

// decodeAll skips documents that fail to decode instead of failing the
// whole snapshot.
func decodeAll[T any](docs []*firestore.DocumentSnapshot, decode func(*firestore.DocumentSnapshot) (T, error)) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode(doc)
		if err != nil {
			logger.Warn("Skipping malformed document %s: %v", doc.Ref.Path, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
