package model

// Word is a run of text with its position on the page.
type Word struct {
	Text string
	BBox BBox
}

// Line is a sequence of words sharing a baseline, ordered left to right.
type Line struct {
	Words []Word
	BBox  BBox
}

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	n := 0
	for _, w := range l.Words {
		n += len(w.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, w := range l.Words {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, w.Text...)
	}
	return string(buf)
}
