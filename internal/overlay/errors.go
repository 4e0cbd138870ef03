package overlay

import "errors"

var ErrPresenterClosed = errors.New("presenter closed")
