package models

// All lists every persisted model in dependency order, for AutoMigrate on sqlite.
func All() []any {
	return []any{
		&Uom{},
		&Product{},
		&InventoryItem{},
		&Location{},
		&Warehouse{},
		&ScrapReasonTag{},
		&ScrapBarcodeConfig{},
		&ScrapOrder{},
		&StockMove{},
		&BarcodeRule{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
