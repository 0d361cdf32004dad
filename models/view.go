package models

// Button is one actionable cell of a rendered view. Token is either a
// selection token understood by ParseCommand or NoopToken for cells that
// must not trigger anything (padding, headers).
type Button struct {
	Label string
	Token string
}

// View is a rendered conversation screen: a text plus a grid of labelled,
// actionable cells. The transport decides how to deliver it (e.g. as an
// inline keyboard); the engine never touches transport framing.
type View struct {
	Text string
	Rows [][]Button
}

// Row appends one row of buttons.
func (v *View) Row(buttons ...Button) {
	v.Rows = append(v.Rows, buttons)
}

// IsZero reports whether the view carries nothing to deliver.
func (v View) IsZero() bool {
	return v.Text == "" && len(v.Rows) == 0
}
