package errors

import (
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		kind    *Error
		err     error
		wantHit bool
	}{
		"instance of the same root error": {
			kind:    ErrDuplicate,
			err:     ErrDuplicate,
			wantHit: true,
		},
		"wrapped instance": {
			kind:    ErrDuplicate,
			err:     Wrap(ErrDuplicate, "address in use"),
			wantHit: true,
		},
		"deeply wrapped instance": {
			kind:    ErrNotFound,
			err:     Wrap(Wrap(ErrNotFound, "escrow"), "cannot load"),
			wantHit: true,
		},
		"different root error": {
			kind:    ErrDuplicate,
			err:     Wrap(ErrNotFound, "nope"),
			wantHit: false,
		},
		"stdlib error": {
			kind:    ErrDuplicate,
			err:     fmt.Errorf("stdlib"),
			wantHit: false,
		},
		"nil kind matches nil error": {
			kind:    nil,
			err:     nil,
			wantHit: true,
		},
		"nil error never matches a kind": {
			kind:    ErrEmpty,
			err:     nil,
			wantHit: false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := tc.kind.Is(tc.err); got != tc.wantHit {
				t.Fatalf("unexpected match result: %v", got)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "anything"); err != nil {
		t.Fatalf("wrapping nil must return nil, got %+v", err)
	}
}

func TestWrapPreservesMessageChain(t *testing.T) {
	err := Wrap(Wrap(ErrAmount, "must be positive"), "initialize")
	const want = "initialize: must be positive: invalid amount"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestRegisterPanicsOnReuse(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reuse of an error code must panic")
		}
	}()
	Register(2, "already taken")
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("kaboom")
	}()
	if !ErrPanic.Is(err) {
		t.Fatalf("want a panic error, got %+v", err)
	}
}
