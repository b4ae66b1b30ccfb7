package domain_test

import "github.com/davidbz/creditmeter/internal/money"

func moneyCenti(v int64) money.Centi {
	return money.Centi(v)
}
