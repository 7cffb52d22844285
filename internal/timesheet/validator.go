package timesheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// overlapWindow bounds the candidate search when checking that two periods
// of the same user do not intersect. Any sheet overlapping ours must begin
// or end within three weeks of our own bounds.
const overlapWindow = 21 * 24 * time.Hour

// NewValidator builds the timesheet validator. Cross-document checks read
// the referenced collections, so the validator needs all of them.
func NewValidator(
	structural *validation.Structural,
	timesheets docstore.Collection[*model.Timesheet],
	users docstore.Collection[*model.User],
	projects docstore.Collection[*model.Project],
	phases docstore.Collection[*model.Phase],
	activities docstore.Collection[*model.Activity],
) *validation.Object[*model.Timesheet] {
	v := validation.NewObject[*model.Timesheet](structural,
		validation.WithNormalizer((*model.Timesheet).Normalize),
		validation.WithMessages[*model.Timesheet](map[string]string{
			"lines.entries.len": "La feuille de temps doit contenir exactement 14 jours",
		}),
	)
	v.Register(
		checkPeriodAlignment,
		checkIntervalBound,
		checkLineUniqueness,
		checkRoadsheet,
		checkNoOverlap(timesheets),
		checkReferences(users, projects, phases, activities),
	)
	return v
}

// checkPeriodAlignment enforces the Sunday-to-Saturday, fourteen day shape
// of a period.
func checkPeriodAlignment(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
	var errs validation.Errors
	if t.Begin.IsZero() || t.Begin.Weekday() != time.Sunday {
		errs.Add([]string{"begin"}, "dayOfWeek", "La feuille de temps doit commencer un Dimanche")
	}
	if t.End.IsZero() || t.End.Weekday() != time.Saturday {
		errs.Add([]string{"end"}, "dayOfWeek", "La feuille de temps doit se terminer un Samedi")
	}
	if t.Begin.IsZero() || t.End.IsZero() || model.DaysInclusive(t.Begin, t.End) != model.PeriodDays {
		msg := "La feuille de temps doit contenir exactement 14 jours"
		errs.Add([]string{"begin"}, "daysCount", msg)
		errs.Add([]string{"end"}, "daysCount", msg)
	}
	return errs, nil
}

// checkIntervalBound requires every line's entries to span exactly the
// period: first entry on begin, last entry on end. Entries are sorted by
// normalization, so first and last are the extremes.
func checkIntervalBound(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
	var errs validation.Errors
	msg := "Toutes les dates doivent être comprises entre le début et la fin de la feuille de temps"
	beginBad, endBad := false, false
	for _, line := range t.Lines {
		if len(line.Entries) == 0 {
			continue
		}
		if !model.SameDay(line.Entries[0].Date, t.Begin) {
			beginBad = true
		}
		if !model.SameDay(line.Entries[len(line.Entries)-1].Date, t.End) {
			endBad = true
		}
	}
	if beginBad {
		errs.Add([]string{"begin"}, "isIntervalBound", msg)
	}
	if endBad {
		errs.Add([]string{"end"}, "isIntervalBound", msg)
	}
	return errs, nil
}

// checkLineUniqueness rejects duplicate (project, phase, activity, divers)
// lines and duplicate entry dates within a line.
func checkLineUniqueness(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
	var errs validation.Errors

	seen := map[string]bool{}
	for _, line := range t.Lines {
		key := line.Project + "\x00" + line.Phase + "\x00" + line.Activity + "\x00" + line.Divers
		if seen[key] {
			errs.Add([]string{"lines"}, "arrayUnique",
				"Chaque ligne doit avoir une combinaison projet, phase, activité, divers différente")
			break
		}
		seen[key] = true
	}

	for i, line := range t.Lines {
		dates := map[string]bool{}
		for _, e := range line.Entries {
			day := e.Date.Format("2006-01-02")
			if dates[day] {
				errs.Add([]string{"lines", strconv.Itoa(i), "entries"}, "arrayUnique",
					"Chaque entrée doit avoir une date différente")
				break
			}
			dates[day] = true
		}
	}
	return errs, nil
}

// checkRoadsheet ties the expense sheet back to the timesheet: every travel
// date inside the period, every roadsheet project present on a line, and no
// two travels of a line on the same day.
func checkRoadsheet(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
	var errs validation.Errors

	known := map[string]bool{}
	for _, line := range t.Lines {
		known[line.Project] = true
	}

	outside, unknown := false, false
	for i, rl := range t.RoadsheetLines {
		if !known[rl.Project] {
			unknown = true
		}
		dates := map[string]bool{}
		for _, travel := range rl.Travels {
			if t.Begin.IsZero() || t.End.IsZero() ||
				travel.Date.Before(t.Begin) || travel.Date.After(t.End) {
				outside = true
			}
			day := travel.Date.Format("2006-01-02")
			if dates[day] {
				errs.Add([]string{"roadsheetLines", strconv.Itoa(i), "travels"}, "arrayUnique",
					"Chaque déplacement doit avoir une date différente")
				break
			}
			dates[day] = true
		}
	}
	if outside {
		errs.Add([]string{"roadsheetLines"}, "noDateOutsideBounds",
			"Toutes les dates doivent être entre le début et la fin de la feuille de temps")
	}
	if unknown {
		errs.Add([]string{"roadsheetLines"}, "noUnknownProject",
			"Tous les projets sur la feuille de dépense doivent être sur la feuille de temps")
	}
	return errs, nil
}

// checkNoOverlap rejects a period intersecting another sheet of the same
// user. Candidates are prefiltered to sheets whose begin or end falls
// within three weeks of ours, then tested for exact intersection.
func checkNoOverlap(timesheets docstore.Collection[*model.Timesheet]) validation.Func[*model.Timesheet] {
	return func(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
		var errs validation.Errors
		if t.User == "" || t.Begin.IsZero() || t.End.IsZero() {
			return errs, nil
		}

		candidates := map[string]*model.Timesheet{}
		for _, field := range []string{"begin", "end"} {
			docs, err := timesheets.Query().
				Where("user", docstore.OpEqual, t.User).
				Where(field, docstore.OpGreaterOrEqual, t.Begin.Add(-overlapWindow)).
				Where(field, docstore.OpLessOrEqual, t.End.Add(overlapWindow)).
				Documents(ctx)
			if err != nil {
				return nil, fmt.Errorf("recherche de chevauchement: %w", err)
			}
			for _, other := range docs {
				candidates[other.ID] = other
			}
		}

		ids := make([]string, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			other := candidates[id]
			if other.ID == t.ID {
				continue
			}
			starts := t.Begin
			if other.Begin.After(starts) {
				starts = other.Begin
			}
			ends := t.End
			if other.End.Before(ends) {
				ends = other.End
			}
			if !starts.After(ends) {
				msg := fmt.Sprintf("La feuille de temps chevauche la feuille %s (%s - %s)",
					other.ID, other.Begin.Format("2006-01-02"), other.End.Format("2006-01-02"))
				errs.Add([]string{"begin"}, "noOverlap", msg)
				errs.Add([]string{"end"}, "noOverlap", msg)
				break
			}
		}
		return errs, nil
	}
}

// existser is the part of a collection reference checks need.
type existser interface {
	Name() string
	Exists(ctx context.Context, id string) (bool, error)
}

// checkReferences verifies every referenced document exists and that each
// line's activity is allowed by its phase. Lookups run concurrently.
func checkReferences(
	users docstore.Collection[*model.User],
	projects docstore.Collection[*model.Project],
	phases docstore.Collection[*model.Phase],
	activities docstore.Collection[*model.Activity],
) validation.Func[*model.Timesheet] {
	return func(ctx context.Context, t *model.Timesheet) (validation.Errors, error) {
		var (
			mu   sync.Mutex
			errs validation.Errors
		)
		g, ctx := errgroup.WithContext(ctx)

		add := func(path []string, constraint, message string) {
			mu.Lock()
			errs.Add(path, constraint, message)
			mu.Unlock()
		}
		mustExist := func(coll existser, id string, path ...string) {
			if id == "" {
				return
			}
			g.Go(func() error {
				ok, err := coll.Exists(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					add(path, coll.Name(),
						fmt.Sprintf("Référence inexistante dans la collection %s", coll.Name()))
				}
				return nil
			})
		}

		mustExist(users, t.User, "user")
		for i, line := range t.Lines {
			idx := strconv.Itoa(i)
			mustExist(projects, line.Project, "lines", idx, "project")
			mustExist(activities, line.Activity, "lines", idx, "activity")
			if line.Phase == "" {
				continue
			}
			g.Go(func() error {
				ph, err := phases.Get(ctx, line.Phase)
				if err != nil {
					if errors.Is(err, docstore.ErrNotFound) {
						add([]string{"lines", idx, "phase"}, phases.Name(),
							fmt.Sprintf("Référence inexistante dans la collection %s", phases.Name()))
						return nil
					}
					return err
				}
				if line.Activity != "" && !slices.Contains(ph.Activities, line.Activity) {
					add([]string{"lines", idx, "activity"}, "activityAllowedWithPhase",
						"L'activité n'est pas permise pour cette phase")
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("vérification des références: %w", err)
		}
		return errs, nil
	}
}
