package lumen

type Releaser interface {
	Release()
}

// ReleaseGuard releases a GPU handle on scope exit unless Keep was
// called. Use with defer to get deterministic cleanup on all error
// paths.
type ReleaseGuard struct {
	delegate Releaser
}

func NewReleaseGuard(delegate Releaser) ReleaseGuard {
	return ReleaseGuard{delegate: delegate}
}

func (r *ReleaseGuard) Keep() {
	r.delegate = nil
}

func (r *ReleaseGuard) Release() {
	if r.delegate != nil {
		r.delegate.Release()
		r.delegate = nil
	}
}
