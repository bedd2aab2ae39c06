package model

// PatientInput is the create/edit form payload for a patient.
// Age is a pointer so a blank field is rejected while 0 stays a valid age.
type PatientInput struct {
	Name   string `form:"name" json:"name" binding:"required,max=255"`
	Age    *int   `form:"age" json:"age" binding:"required,gte=0,lte=150"`
	Gender string `form:"gender" json:"gender" binding:"required"`
}
