package arm

// Position is the arm's logical stylus position in millimeters.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// State is the single record of the physical arm's connection lifecycle,
// position, and pen depth. It carries no lock of its own; the Controller
// owns it and serializes every access. Construct one at startup and pass
// it to NewController.
type State struct {
	connected bool
	handle    int
	address   string
	port      string
	pos       Position
	depth     int
}

// NewState creates arm state targeting the given API address and serial
// port. Address and port can be changed later, but only while disconnected.
func NewState(address, port string) *State {
	s := &State{address: address, port: port}
	s.reset()
	return s
}

// reset returns the state to its disconnected defaults. Address and port
// are connection preferences, not connection state, and survive the reset.
func (s *State) reset() {
	s.connected = false
	s.handle = 0
	s.pos = Position{}
	s.depth = DefaultClickDepth
}

// Snapshot is a read-only copy of State for the status resource.
type Snapshot struct {
	Connected bool     `json:"connected"`
	Handle    int      `json:"handle"`
	Address   string   `json:"address"`
	Port      string   `json:"port"`
	Position  Position `json:"position"`
	Depth     int      `json:"depth"`
}

func (s *State) snapshot() Snapshot {
	return Snapshot{
		Connected: s.connected,
		Handle:    s.handle,
		Address:   s.address,
		Port:      s.port,
		Position:  s.pos,
		Depth:     s.depth,
	}
}
