package reactive

import (
	"fmt"
	"runtime"

	rerrors "github.com/vango-dev/reactive/internal/errors"
)

// goroutineID returns the numeric id of the calling goroutine, parsed from
// the header of its stack trace ("goroutine <id> [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

func (rt *Runtime) checkGoroutine() {
	if !rt.goroutineCheck {
		return
	}
	if gid := goroutineID(); gid != rt.gid {
		panic(rerrors.New(rerrors.CodeWrongGoroutine).
			WithDetail(fmt.Sprintf("runtime belongs to goroutine %d, called from goroutine %d", rt.gid, gid)).
			Wrap(ErrWrongGoroutine))
	}
}
