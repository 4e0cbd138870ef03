package scene

import "errors"

var ErrSoundClosed = errors.New("sound is closed")
