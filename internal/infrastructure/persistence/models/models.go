package models

// All returns every persistence model in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&IdentifierSequenceModel{},
		&CustomerModel{},
		&GuarantorModel{},
		&ProductModel{},
		&ContractModel{},
		&PaymentModel{},
		&AccountModel{},
		&AccountGuarantorModel{},
	}
}
