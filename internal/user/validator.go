package user

import (
	"context"
	"strconv"
	"time"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// timelineTolerance absorbs clock skew between the recorded end of one
// billing rate and the begin of the next.
const timelineTolerance = time.Hour

// NewValidator builds the user validator.
func NewValidator(structural *validation.Structural, users docstore.Collection[*model.User]) *validation.Object[*model.User] {
	v := validation.NewObject[*model.User](structural,
		validation.WithNormalizer((*model.User).Normalize),
		validation.WithMessages[*model.User](map[string]string{
			"billingGroups.len": "Il doit y avoir 2 groupes de facturations",
		}),
	)
	v.Register(
		validation.Unique(users,
			validation.UniquenessOption{
				Fields:  []string{"username"},
				Message: "Le nom d'utilisateur doit être unique.",
			},
			validation.UniquenessOption{
				Fields:  []string{"email"},
				Message: "Le courriel doit être unique.",
			},
			validation.UniquenessOption{
				Fields:  []string{"firstName", "lastName"},
				Message: "Le prénom et le nom doivent être uniques.",
			},
		),
		checkPasswordOnCreation,
		checkBillingGroups,
	)
	return v
}

// checkPasswordOnCreation requires a password for new accounts only.
// Updates may omit it to keep the stored hash untouched.
func checkPasswordOnCreation(ctx context.Context, u *model.User) (validation.Errors, error) {
	var errs validation.Errors
	if u.DocumentID() == "" && u.Password == "" {
		errs.Add([]string{"password"}, "required", "Vous devez choisir un mot de passe.")
	}
	return errs, nil
}

// checkBillingGroups verifies that the two billing groups cover distinct
// project types and that each timeline spans all of time without gaps.
func checkBillingGroups(ctx context.Context, u *model.User) (validation.Errors, error) {
	var errs validation.Errors

	seen := map[model.ProjectType]int{}
	for _, g := range u.BillingGroups {
		seen[g.ProjectType]++
	}
	for _, n := range seen {
		if n > 1 {
			errs.Add([]string{"billingGroups"}, "arrayUnique",
				"Il doit y avoir une liste de taux pour chaque type de facturation")
			break
		}
	}

	for i, g := range u.BillingGroups {
		if len(g.Timeline) == 0 {
			continue
		}
		path := []string{"billingGroups", strconv.Itoa(i), "timeline"}
		tl := g.Timeline

		first, last := tl[0], tl[len(tl)-1]
		if !within(first.Begin.Sub(model.Epoch), 24*time.Hour) || last.End != nil {
			errs.Add(path, "timelineBounds",
				"Le premier intervale doit commencer le 1er Janvier 1970 et le dernier intervale doit être sans fin")
		}

		for k := 0; k < len(tl)-1; k++ {
			end := tl[k].End
			if end == nil || !within(tl[k+1].Begin.Sub(*end), timelineTolerance) {
				errs.Add(path, "timelineCompleteness",
					"Les intervales doivent se suivre sans espaces et sans chevauchements")
				break
			}
		}
	}
	return errs, nil
}

func within(d, tolerance time.Duration) bool {
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
