package domain

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingDraft     ListingStatus = "DRAFT"
	ListingPending   ListingStatus = "PENDING"
	ListingActive    ListingStatus = "ACTIVE"
	ListingReserved  ListingStatus = "RESERVED"
	ListingCompleted ListingStatus = "COMPLETED"
	ListingExpired   ListingStatus = "EXPIRED"
	ListingInactive  ListingStatus = "INACTIVE"
)

// RequestStatus is the lifecycle state of a request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCompleted RequestStatus = "COMPLETED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionInProgress TransactionStatus = "IN_PROGRESS"
	TransactionCompleted  TransactionStatus = "COMPLETED"
	TransactionCancelled  TransactionStatus = "CANCELLED"
	TransactionFailed     TransactionStatus = "FAILED"
)

// DeliveryStatus is the lifecycle state of a delivery assignment.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// requestTransitions is the single source of truth for request status
// changes. Every status write goes through CanTransitionRequest first.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:   {RequestApproved, RequestRejected, RequestCancelled},
	RequestApproved:  {RequestCompleted, RequestCancelled, RequestPending},
	RequestRejected:  {RequestCancelled, RequestPending},
	RequestCompleted: {},
	RequestCancelled: {RequestPending},
}

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryAssigned, DeliveryCancelled, DeliveryFailed},
	DeliveryAssigned:  {DeliveryInTransit, DeliveryCancelled, DeliveryFailed},
	DeliveryInTransit: {DeliveryDelivered, DeliveryFailed},
	DeliveryDelivered: {},
	DeliveryCancelled: {},
	DeliveryFailed:    {},
}

// CanTransitionRequest reports whether a request may move from one status
// to another.
func CanTransitionRequest(from, to RequestStatus) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionDelivery reports whether a delivery assignment may move
// from one status to another.
func CanTransitionDelivery(from, to DeliveryStatus) bool {
	for _, s := range deliveryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TerminalDelivery reports whether a delivery status admits no further
// transitions.
func TerminalDelivery(s DeliveryStatus) bool {
	return len(deliveryTransitions[s]) == 0
}
