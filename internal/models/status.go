package models

// ClassStatus represents the lifecycle of a scheduled class.
type ClassStatus string

// Possible class statuses.
const (
	ClassStatusNotStarted ClassStatus = "NOT_STARTED"
	ClassStatusInProgress ClassStatus = "IN_PROGRESS"
	ClassStatusFinished   ClassStatus = "FINISHED"
	ClassStatusCancelled  ClassStatus = "CANCELLED"
)

// SessionStatus represents the state of a single class meeting.
type SessionStatus string

// Possible session statuses.
const (
	SessionStatusNotHappened SessionStatus = "NOT_HAPPENED"
	SessionStatusInProgress  SessionStatus = "IN_PROGRESS"
	SessionStatusHappened    SessionStatus = "HAPPENED"
	SessionStatusCancelled   SessionStatus = "CANCELLED"
)

// RegistrationStatus represents the lifecycle of an enrollment.
type RegistrationStatus string

// Possible registration statuses.
const (
	RegistrationStatusStudying  RegistrationStatus = "STUDYING"
	RegistrationStatusReserved  RegistrationStatus = "RESERVED"
	RegistrationStatusCompleted RegistrationStatus = "COMPLETED"
	RegistrationStatusCancelled RegistrationStatus = "CANCELLED"
)

// PaymentStatus tracks how much of the fee an enrollment has settled.
type PaymentStatus string

// Possible payment statuses.
const (
	PaymentStatusUnpaid    PaymentStatus = "UNPAID"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusUnderpaid PaymentStatus = "UNDERPAID"
)

// ReservationStatus represents the state of a leave-of-absence reservation.
type ReservationStatus string

// Possible reservation statuses.
const (
	ReservationStatusPending  ReservationStatus = "PENDING_APPROVAL"
	ReservationStatusApproved ReservationStatus = "APPROVED"
	ReservationStatusUsed     ReservationStatus = "USED"
	ReservationStatusRejected ReservationStatus = "REJECTED"
	ReservationStatusExpired  ReservationStatus = "EXPIRED"
)

// RegistrationType distinguishes how an enrollment came to exist.
type RegistrationType string

// Possible registration types. Continued and retake registrations are
// fee-exempt and cannot be changed to another class.
const (
	RegistrationTypeNormal    RegistrationType = "NORMAL"
	RegistrationTypeContinued RegistrationType = "CONTINUED"
	RegistrationTypeRetake    RegistrationType = "RETAKE"
)

// TransactionStatus represents the state of a payment transaction.
type TransactionStatus string

// Possible transaction statuses.
const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

var classStatusLabels = map[ClassStatus]string{
	ClassStatusNotStarted: "Not started",
	ClassStatusInProgress: "In progress",
	ClassStatusFinished:   "Finished",
	ClassStatusCancelled:  "Cancelled",
}

var sessionStatusLabels = map[SessionStatus]string{
	SessionStatusNotHappened: "Not happened",
	SessionStatusInProgress:  "In progress",
	SessionStatusHappened:    "Happened",
	SessionStatusCancelled:   "Cancelled",
}

var registrationStatusLabels = map[RegistrationStatus]string{
	RegistrationStatusStudying:  "Studying",
	RegistrationStatusReserved:  "Reserved",
	RegistrationStatusCompleted: "Completed",
	RegistrationStatusCancelled: "Cancelled",
}

var paymentStatusLabels = map[PaymentStatus]string{
	PaymentStatusUnpaid:    "Unpaid",
	PaymentStatusPaid:      "Paid",
	PaymentStatusUnderpaid: "Underpaid",
}

var reservationStatusLabels = map[ReservationStatus]string{
	ReservationStatusPending:  "Pending approval",
	ReservationStatusApproved: "Approved",
	ReservationStatusUsed:     "Used",
	ReservationStatusRejected: "Rejected",
	ReservationStatusExpired:  "Expired",
}

var registrationTypeLabels = map[RegistrationType]string{
	RegistrationTypeNormal:    "Normal registration",
	RegistrationTypeContinued: "Continued from reservation",
	RegistrationTypeRetake:    "Retake",
}

var transactionStatusLabels = map[TransactionStatus]string{
	TransactionStatusPending: "Pending",
	TransactionStatusSuccess: "Success",
	TransactionStatusFailed:  "Failed",
}

// Label returns the display string for the status. Unknown codes pass
// through unchanged.
func (s ClassStatus) Label() string {
	if label, ok := classStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display string for the status.
func (s SessionStatus) Label() string {
	if label, ok := sessionStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display string for the status.
func (s RegistrationStatus) Label() string {
	if label, ok := registrationStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display string for the status.
func (s PaymentStatus) Label() string {
	if label, ok := paymentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display string for the status.
func (s ReservationStatus) Label() string {
	if label, ok := reservationStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display string for the type.
func (t RegistrationType) Label() string {
	if label, ok := registrationTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Label returns the display string for the status.
func (s TransactionStatus) Label() string {
	if label, ok := transactionStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// StatusVocabulary is the full code-to-label mapping exposed to the portal
// so display logic stays server-authoritative.
type StatusVocabulary struct {
	Class        map[ClassStatus]string        `json:"class"`
	Session      map[SessionStatus]string      `json:"session"`
	Registration map[RegistrationStatus]string `json:"registration"`
	Payment      map[PaymentStatus]string      `json:"payment"`
	Reservation  map[ReservationStatus]string  `json:"reservation"`
	Type         map[RegistrationType]string   `json:"registration_type"`
	Transaction  map[TransactionStatus]string  `json:"transaction"`
}

// Vocabulary returns a copy of every status dimension's label mapping.
func Vocabulary() StatusVocabulary {
	return StatusVocabulary{
		Class:        copyLabels(classStatusLabels),
		Session:      copyLabels(sessionStatusLabels),
		Registration: copyLabels(registrationStatusLabels),
		Payment:      copyLabels(paymentStatusLabels),
		Reservation:  copyLabels(reservationStatusLabels),
		Type:         copyLabels(registrationTypeLabels),
		Transaction:  copyLabels(transactionStatusLabels),
	}
}

func copyLabels[K comparable](src map[K]string) map[K]string {
	dst := make(map[K]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
