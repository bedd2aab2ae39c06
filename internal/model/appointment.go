package model

// AppointmentInput is the create/edit form payload for an appointment.
// Doctor and patient ids are forwarded as typed; the remote API owns referential checks.
type AppointmentInput struct {
	DoctorID        int64  `form:"doctorId" json:"doctorId" binding:"required,gt=0"`
	PatientID       int64  `form:"patientId" json:"patientId" binding:"required,gt=0"`
	AppointmentDate string `form:"appointmentDate" json:"appointmentDate" binding:"required"`
}
