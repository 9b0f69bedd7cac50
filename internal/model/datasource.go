package model

// DataSourceDefinition is a named connector configuration an indexer
// targets for document enumeration, per §3/§4.8.
type DataSourceDefinition struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // the connector kind (e.g. "filesystem", "http")
	Container string `json:"container"`

	// HighWaterMarkColumn, if set, names the change-tracking column the
	// connector reports per document; empty means the data source
	// declares no column and every enumerated document is reprocessed.
	HighWaterMarkColumn   string `json:"highWaterMarkColumn,omitempty"`
	SoftDeleteColumn      string `json:"softDeleteColumn,omitempty"`
	SoftDeleteMarkerValue string `json:"softDeleteMarkerValue,omitempty"`

	Description string `json:"description,omitempty"`
}
