package store

import "time"

// Case is a foreclosure case row keyed by docket number
type Case struct {
	DocketNumber string `gorm:"primaryKey;column:docket_number"`
	CaseName     string `gorm:"column:case_name"`
	DocketURL    string `gorm:"column:docket_url"`
	Town         string `gorm:"column:town"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Case) TableName() string { return "cases" }

// Defendant is one extracted record of a case, keyed by docket number and
// slot ("d_01".."d_05" or "combined").
type Defendant struct {
	DocketNumber string  `gorm:"primaryKey;column:docket_number"`
	Slot         string  `gorm:"primaryKey;column:slot"`
	Name         string  `gorm:"column:name"`
	Address      string  `gorm:"column:address"`
	Town         string  `gorm:"column:town"`
	State        string  `gorm:"column:state"`
	Zip          string  `gorm:"column:zip"`
	D01          *string `gorm:"column:d_01"`
	D02          *string `gorm:"column:d_02"`
	D03          *string `gorm:"column:d_03"`
	D04          *string `gorm:"column:d_04"`
	D05          *string `gorm:"column:d_05"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Defendant) TableName() string { return "defendants" }

// Town is a reference municipality name
type Town struct {
	Town string `gorm:"primaryKey;column:town"`
}

func (Town) TableName() string { return "ct_towns" }
