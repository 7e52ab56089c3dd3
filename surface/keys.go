package surface

type Key uint32

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyC
	KeyD
	KeyE
	KeyF
	KeyH
	KeyM
	KeyP
	KeyQ
	KeyR
	KeyT
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyEscape
	KeyShift
	KeyControl
)

var keyNames = map[Key]string{
	KeyW:       "W",
	KeyA:       "A",
	KeyS:       "S",
	KeyC:       "C",
	KeyD:       "D",
	KeyE:       "E",
	KeyF:       "F",
	KeyH:       "H",
	KeyM:       "M",
	KeyP:       "P",
	KeyQ:       "Q",
	KeyR:       "R",
	KeyT:       "T",
	KeyUp:      "Up",
	KeyDown:    "Down",
	KeyLeft:    "Left",
	KeyRight:   "Right",
	KeySpace:   "Space",
	KeyEscape:  "Escape",
	KeyShift:   "Shift",
	KeyControl: "Control",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}

	return "Unknown"
}
