package models

import "time"

// RawPhoto is a locally staged image awaiting upload. The staged file at
// PreviewPath is owned by the session and must be removed when the photo is
// removed or the session resets.
type RawPhoto struct {
	Name        string `json:"name"`
	PreviewPath string `json:"preview_path"`
	Size        int64  `json:"size"`
}

// UploadedPhoto is the object-upload service's record of one stored photo.
// Immutable after creation; products reference it by URL.
type UploadedPhoto struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	CardURL       string `json:"cardUrl"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	MobileCardURL string `json:"mobileCardUrl"`
}

// PhotoGroup is a candidate product proposed by the grouping service: the
// indexes of the uploaded photos believed to depict the same item.
type PhotoGroup struct {
	ID            string `json:"id"`
	PhotoIndexes  []int  `json:"photoIndexes"`
	SuggestedName string `json:"suggestedName"`
	Confidence    int    `json:"confidence"` // 0-100
}

// PriceEstimate is the analysis service's suggested price range.
type PriceEstimate struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AIListingData is the raw, un-normalized analysis result for one photo
// group. Field values may contain hedged or uncertain text and must go
// through the normalizer before reaching a form.
type AIListingData struct {
	Brand            string         `json:"brand"`
	Model            string         `json:"model"`
	Year             string         `json:"year"`
	ItemType         string         `json:"itemType"`
	FrameSize        string         `json:"frameSize"`
	Groupset         string         `json:"groupset"`
	WheelSize        string         `json:"wheelSize"`
	Compatibility    string         `json:"compatibility"`
	Material         string         `json:"material"`
	ApparelSize      string         `json:"apparelSize"`
	ApparelFit       string         `json:"apparelFit"`
	Condition        string         `json:"condition"`
	ConditionDetails string         `json:"conditionDetails"`
	PriceEstimate    *PriceEstimate `json:"priceEstimate"`
}

// ProductFormData holds the canonical listing fields the user edits.
type ProductFormData struct {
	Title    string `json:"title"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Year     string `json:"year"`
	ItemType string `json:"item_type"`

	FrameSize     string `json:"frame_size,omitempty"`
	Groupset      string `json:"groupset,omitempty"`
	WheelSize     string `json:"wheel_size,omitempty"`
	Compatibility string `json:"compatibility,omitempty"`
	Material      string `json:"material,omitempty"`
	ApparelSize   string `json:"apparel_size,omitempty"`
	ApparelFit    string `json:"apparel_fit,omitempty"`

	Condition        string `json:"condition"`
	ConditionDetails string `json:"condition_details,omitempty"`

	Price          int `json:"price"`
	ReferencePrice int `json:"reference_price,omitempty"`

	ShippingEnabled bool    `json:"shipping_enabled"`
	ShippingCost    float64 `json:"shipping_cost,omitempty"`
	PickupEnabled   bool    `json:"pickup_enabled"`
	PickupLocation  string  `json:"pickup_location,omitempty"`
}

// Product is the mutable listing-in-progress carried from grouping through
// publish. ImageURLs and ThumbnailURLs are parallel lists; index 0 is the
// cover image. IsValid is always derived from FormData, never set directly.
type Product struct {
	GroupID       string          `json:"group_id"`
	ImageURLs     []string        `json:"image_urls"`
	ThumbnailURLs []string        `json:"thumbnail_urls"`
	SuggestedName string          `json:"suggested_name"`
	AIData        *AIListingData  `json:"ai_data,omitempty"`
	FormData      ProductFormData `json:"form_data"`
	IsValid       bool            `json:"is_valid"`
}

// ImageDescriptor is one image entry in a listing-creation payload.
type ImageDescriptor struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	IsPrimary    bool   `json:"isPrimary"`
}

// ShippingTerms is the delivery half of a listing's delivery terms.
type ShippingTerms struct {
	Cost float64 `json:"cost"`
}

// PickupTerms is the local-pickup half of a listing's delivery terms.
type PickupTerms struct {
	Location string `json:"location"`
}

// ListingPayload is the bulk listing-creation service's per-listing record.
type ListingPayload struct {
	Title            string            `json:"title"`
	Brand            string            `json:"brand"`
	ModelName        string            `json:"model"`
	Year             string            `json:"year,omitempty"`
	Category         string            `json:"category"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Condition        string            `json:"condition"`
	ConditionDetails string            `json:"conditionDetails,omitempty"`
	Price            int               `json:"price"`
	ReferencePrice   int               `json:"referencePrice,omitempty"`
	Shipping         *ShippingTerms    `json:"shipping,omitempty"`
	Pickup           *PickupTerms      `json:"pickup,omitempty"`
	Images           []ImageDescriptor `json:"images"`
}

// CreatedListing identifies one listing created by a publish run.
type CreatedListing struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	At    time.Time `json:"at"`
}
