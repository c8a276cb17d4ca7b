package opfetch

import "context"

// Chain composes middleware around terminal. The first middleware is the
// outermost: it runs first and its next runs the second, and so on, with the
// last one's next calling terminal. An empty list returns terminal itself.
func Chain(middleware []Middleware, terminal FetchFunc) FetchFunc {
	if len(middleware) == 0 {
		return terminal
	}

	current := terminal
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := current
		current = func(ctx context.Context, url string, init Init) (*Response, error) {
			return mw(ctx, url, init, next)
		}
	}
	return current
}

// fetchNormalized is the terminal stage: the raw transport call followed by
// response normalization. Transport errors are returned unchanged.
func fetchNormalized(t Transport) FetchFunc {
	return func(ctx context.Context, url string, init Init) (*Response, error) {
		raw, err := t.Fetch(ctx, url, init)
		if err != nil {
			return nil, err
		}
		return Normalize(raw)
	}
}
