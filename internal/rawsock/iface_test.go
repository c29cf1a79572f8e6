package rawsock

import "testing"

func TestLookupInterfaceAddrUnknownInterface(t *testing.T) {
	_, err := LookupInterfaceAddr("sixtrace-no-such-interface-0")
	if err != ErrUnknownInterface {
		t.Errorf("err = %v, want ErrUnknownInterface", err)
	}
}
