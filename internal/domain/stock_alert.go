package domain

import "strings"

// StockAlert classifies a row's stock level against its reorder and max thresholds.
type StockAlert string

const (
	AlertReorder    StockAlert = "Reorder"
	AlertOptimal    StockAlert = "Optimal"
	AlertSurplus    StockAlert = "Surplus"
	AlertSufficient StockAlert = "Sufficient"
	AlertUnknown    StockAlert = "Unknown"

	// Markers used when a classification cannot be made.
	AlertMissingStock      StockAlert = "N/A (Missing Stock Data)"
	AlertNeedsThresholds   StockAlert = "N/A (Needs Thresholds)"
	AlertMissingThresholds StockAlert = "N/A (Missing Stock/Threshold Data)"

	// AlertLowStock is not derived here but some sheets carry it in their own flag column.
	AlertLowStock StockAlert = "Low Stock"
)

// AlertClass is the coarse enum every StockAlert belongs to.
type AlertClass string

const (
	ClassReorder     AlertClass = "Reorder"
	ClassOptimal     AlertClass = "Optimal"
	ClassSurplus     AlertClass = "Surplus"
	ClassSufficient  AlertClass = "Sufficient"
	ClassUnknown     AlertClass = "Unknown"
	ClassMissingData AlertClass = "MissingData"
)

var alertClasses = map[StockAlert]AlertClass{
	AlertReorder:           ClassReorder,
	AlertLowStock:          ClassReorder,
	AlertOptimal:           ClassOptimal,
	AlertSurplus:           ClassSurplus,
	AlertSufficient:        ClassSufficient,
	AlertUnknown:           ClassUnknown,
	AlertMissingStock:      ClassMissingData,
	AlertNeedsThresholds:   ClassMissingData,
	AlertMissingThresholds: ClassMissingData,
}

// Class returns the coarse class of an alert label. Unrecognised labels that carry
// the "N/A" prefix are missing data, anything else is Unknown.
func (a StockAlert) Class() AlertClass {
	if class, ok := alertClasses[a]; ok {
		return class
	}
	if strings.HasPrefix(string(a), "N/A") {
		return ClassMissingData
	}
	return ClassUnknown
}

// NeedsAttention reports whether the label marks an item that should be restocked.
func (a StockAlert) NeedsAttention() bool {
	return a == AlertReorder || a == AlertLowStock
}

// ParseStockAlert matches a label case-insensitively.
func ParseStockAlert(label string) (StockAlert, bool) {
	trimmed := strings.TrimSpace(label)
	for alert := range alertClasses {
		if strings.EqualFold(string(alert), trimmed) {
			return alert, true
		}
	}
	return StockAlert(trimmed), false
}
