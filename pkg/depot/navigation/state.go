package navigation

import "fmt"

type State int

const (
	IDLE State = 0
	RESOLVING_COMMIT State = 1
	LOADING_TREE State = 2
	READY State = 3
	ERROR State = 4
)

func (s State) String() string {
	switch s {
	case IDLE: return "IDLE"
	case RESOLVING_COMMIT: return "RESOLVING_COMMIT"
	case LOADING_TREE: return "LOADING_TREE"
	case READY: return "READY"
	case ERROR: return "ERROR"
	}
	return "INVALID"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for k := IDLE; k <= ERROR; k++ {
		if k.String() == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("Invalid navigation state %q", string(b))
}
