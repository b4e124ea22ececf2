package agents

// Result is the outcome of an agent entry point. Failures never escape as
// panics or bare errors; Error carries the message and Err the typed error.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error(), Err: err}
}

// Empty is the payload of results that carry no data.
type Empty struct{}
