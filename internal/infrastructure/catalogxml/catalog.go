// Package catalogxml lee el catálogo exportado por el ERP anterior: bodegas, productos y existencias
// iniciales. El archivo suele venir en ISO-8859-1.
package catalogxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Catalog documento <catalogo empresa="...">.
type Catalog struct {
	Empresa     string       `xml:"empresa,attr"`
	Bodegas     []Bodega     `xml:"bodega"`
	Productos   []Producto   `xml:"producto"`
	Existencias []Existencia `xml:"existencia"`
}

type Bodega struct {
	ID        string `xml:"id,attr"`
	Nombre    string `xml:"nombre,attr"`
	Direccion string `xml:"direccion,attr"`
}

type Producto struct {
	ID     string `xml:"id,attr"`
	SKU    string `xml:"sku,attr"`
	Nombre string `xml:"nombre,attr"`
	Costo  string `xml:"costo,attr"`
	Precio string `xml:"precio,attr"`
}

type Existencia struct {
	Producto string `xml:"producto,attr"`
	Bodega   string `xml:"bodega,attr"`
	Cantidad int64  `xml:"cantidad,attr"`
}

// ParseFile abre y decodifica path.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodifica y valida el catálogo: referencias cruzadas, montos y cantidades.
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		if strings.EqualFold(charset, "windows-1252") {
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decodificar XML: %w", err)
	}
	if strings.TrimSpace(c.Empresa) == "" {
		return nil, fmt.Errorf("atributo empresa vacío")
	}
	bodegas := make(map[string]bool, len(c.Bodegas))
	for _, b := range c.Bodegas {
		if b.ID == "" || strings.TrimSpace(b.Nombre) == "" {
			return nil, fmt.Errorf("bodega incompleta: %+v", b)
		}
		bodegas[b.ID] = true
	}
	productos := make(map[string]bool, len(c.Productos))
	for _, p := range c.Productos {
		if p.ID == "" || p.SKU == "" {
			return nil, fmt.Errorf("producto incompleto: %+v", p)
		}
		if _, err := Money(p.Costo); err != nil {
			return nil, fmt.Errorf("producto %s: costo %q", p.SKU, p.Costo)
		}
		if _, err := Money(p.Precio); err != nil {
			return nil, fmt.Errorf("producto %s: precio %q", p.SKU, p.Precio)
		}
		productos[p.ID] = true
	}
	for _, e := range c.Existencias {
		if !productos[e.Producto] || !bodegas[e.Bodega] {
			return nil, fmt.Errorf("existencia apunta a producto o bodega desconocidos: %+v", e)
		}
		if e.Cantidad < 0 || e.Cantidad > entity.MaxQuantity {
			return nil, fmt.Errorf("existencia fuera de rango: %+v", e)
		}
	}
	return &c, nil
}

// Money acepta coma o punto decimal ("1234,50" del ERP anterior).
func Money(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// Warehouses bodegas activas de la empresa del catálogo.
func (c *Catalog) Warehouses(now time.Time) []entity.Warehouse {
	out := make([]entity.Warehouse, 0, len(c.Bodegas))
	for _, b := range c.Bodegas {
		out = append(out, entity.Warehouse{
			ID: b.ID, CompanyID: c.Empresa, Name: b.Nombre, Address: b.Direccion, Active: true,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	return out
}

// Products productos con costo y precio ya convertidos (Parse garantiza que son válidos).
func (c *Catalog) Products(now time.Time) []entity.Product {
	out := make([]entity.Product, 0, len(c.Productos))
	for _, p := range c.Productos {
		cost, _ := Money(p.Costo)
		price, _ := Money(p.Precio)
		out = append(out, entity.Product{
			ID: p.ID, CompanyID: c.Empresa, SKU: p.SKU, Name: p.Nombre, Cost: cost, Price: price,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	return out
}

// OpeningStock existencias no nulas como ADJUSTMENT_IN, con referencia estable por par.
func (c *Catalog) OpeningStock(userID string) []inventory.MovementRequest {
	var out []inventory.MovementRequest
	for _, e := range c.Existencias {
		if e.Cantidad == 0 {
			continue
		}
		out = append(out, inventory.MovementRequest{
			CompanyID:   c.Empresa,
			UserID:      userID,
			ProductID:   e.Producto,
			LocationID:  e.Bodega,
			Type:        entity.MovementAdjustmentIn,
			Quantity:    e.Cantidad,
			ReferenceID: "seed:" + e.Producto + ":" + e.Bodega,
			Notes:       "existencia inicial",
		})
	}
	return out
}
