package streak

import "time"

// Segment is one maximal run of consecutive active days.
type Segment struct {
	Start     Day
	End       Day
	Length    int
	ReadDays  int
	CheatDays int
}

// runs walks the sorted active days once, starting a new segment wherever
// the previous calendar day is inactive.
func (a *Activity) runs() []Segment {
	var segs []Segment
	for _, d := range a.days {
		if len(segs) == 0 || !a.Active(d.AddDays(-1)) {
			segs = append(segs, Segment{Start: d})
		}
		seg := &segs[len(segs)-1]
		seg.End = d
		seg.Length++
		if a.IsCheat(d) {
			seg.CheatDays++
		} else {
			seg.ReadDays++
		}
	}
	return segs
}

// Segments returns every streak run, newest first.
func (a *Activity) Segments() []Segment {
	segs := a.runs()
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// WeekDay is one entry of the seven-day strip.
type WeekDay struct {
	Day    Day
	Active bool
	Cheat  bool
}

// Week returns the seven days ending today, oldest first.
func (a *Activity) Week(today Day) []WeekDay {
	out := make([]WeekDay, 0, 7)
	for i := 6; i >= 0; i-- {
		d := today.AddDays(-i)
		out = append(out, WeekDay{Day: d, Active: a.Active(d), Cheat: a.IsCheat(d)})
	}
	return out
}

// HeatCell is the heatmap weight of one active day: 1 for read, 2 for cheat.
type HeatCell struct {
	Day    Day
	Weight int
}

// Heatmap returns a weighted cell for every active day within [from, to],
// ascending.
func (a *Activity) Heatmap(from, to Day) []HeatCell {
	var cells []HeatCell
	for _, d := range a.days {
		if d.Before(from) || to.Before(d) {
			continue
		}
		w := 1
		if a.IsCheat(d) {
			w = 2
		}
		cells = append(cells, HeatCell{Day: d, Weight: w})
	}
	return cells
}

// DayStatus pairs a date with its classification.
type DayStatus struct {
	Day    Day
	Status Status
}

// Month classifies every day of the given month relative to today.
func (a *Activity) Month(year int, month time.Month, today Day) []DayStatus {
	first := Day{Year: year, Month: month, Day: 1}
	var out []DayStatus
	for d := first; d.Month == month; d = d.AddDays(1) {
		out = append(out, DayStatus{Day: d, Status: a.Classify(d, today)})
	}
	return out
}
