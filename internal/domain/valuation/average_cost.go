// Package valuation contiene la valorización de existencias (servicio de dominio).
package valuation

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(stock int64, currentCost decimal.Decimal, inQty int64, inCost decimal.Decimal) decimal.Decimal {
	sum := stock + inQty
	if sum <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(stock).Mul(currentCost).Add(decimal.NewFromInt(inQty).Mul(inCost))
	return num.Div(decimal.NewFromInt(sum))
}
