package netx

import (
	"context"
	"sync"
)

// Putter is anything that can place bytes at a pre-signed URL.
type Putter interface {
	Upload(ctx context.Context, url string, body []byte, contentType string) error
}

type Job struct {
	URL         string
	Body        []byte
	ContentType string
}

// Outcome holds per-job results of TransferAll. Errs is index aligned with
// the jobs; Order lists job indexes in the order they finished.
type Outcome struct {
	Errs  []error
	Order []int
}

// Succeeded reports whether job i was transferred.
func (o Outcome) Succeeded(i int) bool {
	return o.Errs[i] == nil
}

func (o Outcome) SuccessCount() int {
	n := 0
	for _, err := range o.Errs {
		if err == nil {
			n++
		}
	}
	return n
}

// FirstFailure returns the failure that completed first, or -1 and nil.
func (o Outcome) FirstFailure() (int, error) {
	for _, i := range o.Order {
		if o.Errs[i] != nil {
			return i, o.Errs[i]
		}
	}
	return -1, nil
}

// TransferAll runs every job concurrently and waits for all of them. A
// failing job never cancels its siblings.
func TransferAll(ctx context.Context, p Putter, jobs []Job) Outcome {
	out := Outcome{
		Errs:  make([]error, len(jobs)),
		Order: make([]int, 0, len(jobs)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Upload(ctx, job.URL, job.Body, job.ContentType)

			mu.Lock()
			out.Errs[i] = err
			out.Order = append(out.Order, i)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}
