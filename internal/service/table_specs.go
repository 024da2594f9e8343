package service

import (
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/pkg/config"
	"github.com/noah-isme/uniportal-api/pkg/listing"
)

// TableSpecs holds the search, category and page size rules of every table view.
type TableSpecs struct {
	Universities *listing.Engine[models.University]
	Payments     *listing.Engine[models.Payment]
	Activity     *listing.Engine[models.ActivityLog]
	Students     *listing.Engine[models.Student]
}

// NewTableSpecs builds the table engines from the listing configuration.
func NewTableSpecs(cfg config.ListingConfig) TableSpecs {
	return TableSpecs{
		Universities: listing.New(listing.Spec[models.University]{
			Fields:   func(u models.University) []string { return []string{u.Name, u.Code, u.Email} },
			Category: func(u models.University) string { return u.Status },
			PageSize: cfg.UniversitiesPageSize,
		}),
		Payments: listing.New(listing.Spec[models.Payment]{
			Fields:   func(p models.Payment) []string { return []string{p.StudentName, p.TransactionID, p.UniversityName} },
			Category: func(p models.Payment) string { return p.Status },
			PageSize: cfg.PaymentsPageSize,
		}),
		Activity: listing.New(listing.Spec[models.ActivityLog]{
			Fields:   func(a models.ActivityLog) []string { return []string{a.Actor, a.Action, a.Target} },
			Category: func(a models.ActivityLog) string { return a.Action },
			PageSize: cfg.ActivityPageSize,
		}),
		Students: listing.New(listing.Spec[models.Student]{
			Fields:   func(s models.Student) []string { return []string{s.Name, s.Email, s.StudentID} },
			Category: func(s models.Student) string { return s.Department },
			PageSize: cfg.StudentsPageSize,
		}),
	}
}
