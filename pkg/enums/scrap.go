package enums

// ScrapState is the lifecycle of a scrap order.
type ScrapState string

const (
	ScrapStateDraft ScrapState = "draft"
	ScrapStateDone  ScrapState = "done"
)

// String implements fmt.Stringer.
func (s ScrapState) String() string {
	return string(s)
}

// ScrapSkipReason explains why a submitted line produced no scrap order.
type ScrapSkipReason string

const (
	ScrapSkipReasonNoStock         ScrapSkipReason = "no_stock"
	ScrapSkipReasonProductNotFound ScrapSkipReason = "product_not_found"
)

// String implements fmt.Stringer.
func (r ScrapSkipReason) String() string {
	return string(r)
}
