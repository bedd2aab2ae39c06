package model

// DoctorInput is the create/edit form payload for a doctor.
type DoctorInput struct {
	Name           string `form:"name" json:"name" binding:"required,max=255"`
	Specialization string `form:"specialization" json:"specialization" binding:"required,max=255"`
	Available      bool   `form:"available" json:"available"`
}
