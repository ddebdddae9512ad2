package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"streaker/internal/model"
	"streaker/internal/stats"
	"streaker/internal/storage"
	"streaker/internal/streak"
)

const heatmapDays = 365

type weekDayJSON struct {
	Day    streak.Day `json:"day"`
	Active bool       `json:"active"`
	Cheat  bool       `json:"cheat"`
}

type lastReadJSON struct {
	ChapterID string     `json:"chapter_id"`
	Title     string     `json:"title"`
	Day       streak.Day `json:"day"`
	ReadAt    time.Time  `json:"read_at"`
}

type streakResponse struct {
	UserID      int64         `json:"user_id"`
	Name        string        `json:"name"`
	Timezone    string        `json:"timezone"`
	Today       streak.Day    `json:"today"`
	Current     int           `json:"current"`
	Longest     int           `json:"longest"`
	TodayActive bool          `json:"today_active"`
	Week        []weekDayJSON `json:"week"`
	LastRead    *lastReadJSON `json:"last_read,omitempty"`
}

type dayStatusJSON struct {
	Day    streak.Day `json:"day"`
	Status string     `json:"status"`
}

type calendarResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Days  []dayStatusJSON `json:"days"`
}

type segmentJSON struct {
	Start     streak.Day `json:"start"`
	End       streak.Day `json:"end"`
	Length    int        `json:"length"`
	ReadDays  int        `json:"read_days"`
	CheatDays int        `json:"cheat_days"`
}

type historyResponse struct {
	Segments []segmentJSON `json:"segments"`
}

type heatCellJSON struct {
	Day    streak.Day `json:"day"`
	Weight int        `json:"weight"`
}

type heatmapResponse struct {
	From  streak.Day     `json:"from"`
	To    streak.Day     `json:"to"`
	Cells []heatCellJSON `json:"cells"`
}

type leaderboardEntryJSON struct {
	Rank    int    `json:"rank"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
}

type leaderboardResponse struct {
	Entries []leaderboardEntryJSON `json:"entries"`
}

func (s *Server) userFromPath(r *http.Request) (*model.User, error) {
	raw := chi.URLParam(r, paramID)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errBadRequest("invalid user id %q", raw)
	}
	u, err := s.store.GetUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNotFound("user not found", err)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Server) summary(ctx context.Context, u *model.User) (stats.Summary, model.Snapshot, error) {
	snap, err := s.snaps.Snapshot(ctx, u.ID)
	if err != nil {
		return stats.Summary{}, model.Snapshot{}, err
	}
	return s.recorder.Summarize(u, snap), snap, nil
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) error {
	u, err := s.userFromPath(r)
	if err != nil {
		return err
	}
	sum, snap, err := s.summary(r.Context(), u)
	if err != nil {
		return err
	}

	resp := streakResponse{
		UserID:      u.ID,
		Name:        u.DisplayName(),
		Timezone:    sum.Location.String(),
		Today:       sum.Today,
		Current:     sum.Stats.Current,
		Longest:     sum.Stats.Longest,
		TodayActive: sum.Activity.Active(sum.Today),
	}
	for _, wd := range sum.Activity.Week(sum.Today) {
		resp.Week = append(resp.Week, weekDayJSON{Day: wd.Day, Active: wd.Active, Cheat: wd.Cheat})
	}
	if ev, ok := snap.LastRead(); ok {
		title := ev.ChapterID
		if ch, ok := s.catalog.Get(ev.ChapterID); ok {
			title = ch.Title
		}
		resp.LastRead = &lastReadJSON{
			ChapterID: ev.ChapterID,
			Title:     title,
			Day:       streak.DayOf(ev.ReadAt, sum.Location),
			ReadAt:    ev.ReadAt.UTC(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) error {
	u, err := s.userFromPath(r)
	if err != nil {
		return err
	}
	sum, _, err := s.summary(r.Context(), u)
	if err != nil {
		return err
	}

	year, month := sum.Today.Year, sum.Today.Month
	if q := r.URL.Query().Get("month"); q != "" {
		t, err := time.Parse("2006-01", q)
		if err != nil {
			return errBadRequest("invalid month %q, use YYYY-MM", q)
		}
		year, month = t.Year(), t.Month()
	}

	resp := calendarResponse{Year: year, Month: int(month)}
	for _, c := range sum.Activity.Month(year, month, sum.Today) {
		status := string(c.Status)
		if c.Status == streak.StatusNone {
			status = "none"
		}
		resp.Days = append(resp.Days, dayStatusJSON{Day: c.Day, Status: status})
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) error {
	u, err := s.userFromPath(r)
	if err != nil {
		return err
	}
	sum, _, err := s.summary(r.Context(), u)
	if err != nil {
		return err
	}

	resp := historyResponse{Segments: []segmentJSON{}}
	for _, seg := range sum.Activity.Segments() {
		resp.Segments = append(resp.Segments, segmentJSON{
			Start:     seg.Start,
			End:       seg.End,
			Length:    seg.Length,
			ReadDays:  seg.ReadDays,
			CheatDays: seg.CheatDays,
		})
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) error {
	u, err := s.userFromPath(r)
	if err != nil {
		return err
	}
	sum, _, err := s.summary(r.Context(), u)
	if err != nil {
		return err
	}

	to := sum.Today
	if q := r.URL.Query().Get("to"); q != "" {
		if to, err = streak.ParseDay(q); err != nil {
			return errBadRequest("invalid to date %q, use YYYY-MM-DD", q)
		}
	}
	from := to.AddDays(1 - heatmapDays)
	if q := r.URL.Query().Get("from"); q != "" {
		if from, err = streak.ParseDay(q); err != nil {
			return errBadRequest("invalid from date %q, use YYYY-MM-DD", q)
		}
	}
	if to.Before(from) {
		return errBadRequest("from %s is after to %s", from, to)
	}

	resp := heatmapResponse{From: from, To: to, Cells: []heatCellJSON{}}
	for _, c := range sum.Activity.Heatmap(from, to) {
		resp.Cells = append(resp.Cells, heatCellJSON{Day: c.Day, Weight: c.Weight})
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) error {
	u, err := s.userFromPath(r)
	if err != nil {
		return err
	}
	entries, err := s.store.Leaderboard(r.Context(), u.ID)
	if err != nil {
		return err
	}

	resp := leaderboardResponse{Entries: []leaderboardEntryJSON{}}
	for i, e := range entries {
		resp.Entries = append(resp.Entries, leaderboardEntryJSON{
			Rank:    i + 1,
			UserID:  e.UserID,
			Name:    (&model.User{ID: e.UserID, Name: e.Name}).DisplayName(),
			Current: e.Current,
			Longest: e.Longest,
		})
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}
