package models

import (
	"net/url"
	"time"
)

// Category is the closed set of event kinds.
type Category string

const (
	CategoryConcert    Category = "concert"
	CategoryTheater    Category = "theater"
	CategoryExhibition Category = "exhibition"
	CategorySport      Category = "sport"
	CategoryOther      Category = "other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryConcert, CategoryTheater, CategoryExhibition, CategorySport, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// City is one of the two cities the listing covers.
type City string

const (
	CityKopeysk     City = "Копейск"
	CityChelyabinsk City = "Челябинск"
)

var Cities = []City{CityKopeysk, CityChelyabinsk}

func (c City) Valid() bool {
	return c == CityKopeysk || c == CityChelyabinsk
}

// Event is a single listing. ID is opaque to clients; the Mongo store keeps
// it as an ObjectID and hands it out as hex.
type Event struct {
	ID          string    `json:"id"          bson:"-"`
	Title       string    `json:"title"       bson:"title"`
	Description string    `json:"description" bson:"description"`
	Image       string    `json:"image"       bson:"image"`
	Date        time.Time `json:"date"        bson:"date"`
	Category    Category  `json:"category"    bson:"category"`
	City        City      `json:"city"        bson:"city"`
	Likes       int       `json:"likes"       bson:"likes"`
	LikedBy     []string  `json:"-"           bson:"liked_by"`
	Attendees   []string  `json:"attendees"   bson:"attendees"`
	CreatedBy   string    `json:"created_by"  bson:"created_by"`
	CreatedAt   time.Time `json:"created_at"  bson:"created_at"`
}

// IsAttending reports whether userID is in the attendee list.
func (e *Event) IsAttending(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateEventRequest is the JSON body for POST /api/events.
type CreateEventRequest struct {
	Title       string    `json:"title"       validate:"required,min=3"`
	Description string    `json:"description" validate:"required,min=10"`
	Image       string    `json:"image"       validate:"required,url"`
	Date        time.Time `json:"date"        validate:"required"`
	Category    Category  `json:"category"    validate:"required,category"`
	City        City      `json:"city"        validate:"required,city"`
}

// ListResponse is the body of GET /api/events.
type ListResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}

// AttendanceRequest is the JSON body for PATCH /api/events/{id}/attendance.
type AttendanceRequest struct {
	Attending bool `json:"attending"`
}

type AttendanceResponse struct {
	Success bool `json:"success"`
}

type LikeResponse struct {
	Success bool `json:"success"`
	Likes   int  `json:"likes"`
}

// Filter narrows GET /api/events. Zero values mean "not set".
type Filter struct {
	StartDate time.Time
	EndDate   time.Time
	Category  Category
	City      City
}

// isoMillis matches the browser's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Values encodes only the fields that are set.
func (f *Filter) Values() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	if !f.StartDate.IsZero() {
		v.Set("startDate", f.StartDate.UTC().Format(isoMillis))
	}
	if !f.EndDate.IsZero() {
		v.Set("endDate", f.EndDate.UTC().Format(isoMillis))
	}
	if f.Category != "" {
		v.Set("category", string(f.Category))
	}
	if f.City != "" {
		v.Set("city", string(f.City))
	}
	return v
}

// ParseFilter is the inverse of Values. Unknown categories and cities are rejected.
func ParseFilter(q url.Values) (*Filter, error) {
	f := &Filter{}
	var err error
	if s := q.Get("startDate"); s != "" {
		if f.StartDate, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, &FieldError{Field: "startDate", Message: "must be an ISO-8601 date-time"}
		}
	}
	if s := q.Get("endDate"); s != "" {
		if f.EndDate, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, &FieldError{Field: "endDate", Message: "must be an ISO-8601 date-time"}
		}
	}
	if s := q.Get("category"); s != "" {
		f.Category = Category(s)
		if !f.Category.Valid() {
			return nil, &FieldError{Field: "category", Message: "unknown category"}
		}
	}
	if s := q.Get("city"); s != "" {
		f.City = City(s)
		if !f.City.Valid() {
			return nil, &FieldError{Field: "city", Message: "unknown city"}
		}
	}
	return f, nil
}
