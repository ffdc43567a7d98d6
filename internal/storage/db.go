package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"almacen/internal"
	"almacen/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS templates (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  supplierId TEXT NOT NULL DEFAULT '',
  keywordsJson TEXT NOT NULL DEFAULT '[]',
  headerJson TEXT NOT NULL DEFAULT '{}',
  linesJson TEXT NOT NULL DEFAULT '{}',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT,
  supplierId TEXT,
  salePrice REAL,
  code_sku TEXT,
  code_barcode TEXT,
  code_manufacturer TEXT,
  altCodes TEXT,
  updatedAt TEXT,
  raw_json TEXT NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
CREATE INDEX IF NOT EXISTS idx_products_sku ON products(code_sku);

CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  externalId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(source, externalId)
);

CREATE TABLE IF NOT EXISTS purchases (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL UNIQUE,
  templateId INTEGER,
  orderNumber TEXT,
  orderDate TEXT,
  total REAL,
  fieldErrorsJson TEXT NOT NULL DEFAULT '{}',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);

CREATE TABLE IF NOT EXISTS purchase_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  purchaseId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  rawLine TEXT NOT NULL,
  description TEXT NOT NULL,
  sku TEXT,
  quantity REAL,
  unitPrice REAL,
  lineTotal REAL,
  matchStatus TEXT NOT NULL DEFAULT 'NOT_FOUND',
  confidence REAL NOT NULL DEFAULT 0,
  matchReason TEXT NOT NULL DEFAULT 'NONE',
  productId INTEGER,
  candidatesJson TEXT NOT NULL DEFAULT '[]',
  UNIQUE(purchaseId, lineNo),
  FOREIGN KEY(purchaseId) REFERENCES purchases(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  documentId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveTemplate inserts a template (ID 0) or updates an existing row. The
// header and line configs round-trip through JSON columns so optional
// mapping keys stay omitted, not null.
func (d *DB) SaveTemplate(tmpl internal.Template) (int, error) {
	keywordsJSON, _ := json.Marshal(tmpl.DetectionKeywords)
	headerJSON, _ := json.Marshal(tmpl.Header)
	linesJSON, _ := json.Marshal(tmpl.Lines)

	if tmpl.ID == 0 {
		result, err := d.conn.Exec(`
INSERT INTO templates (name, active, supplierId, keywordsJson, headerJson, linesJson)
VALUES (?, ?, ?, ?, ?, ?)
`, tmpl.Name, boolToInt(tmpl.Active), tmpl.SupplierID, string(keywordsJSON), string(headerJSON), string(linesJSON))
		if err != nil {
			return 0, err
		}
		id, err := result.LastInsertId()
		return int(id), err
	}

	_, err := d.conn.Exec(`
UPDATE templates SET
  name = ?, active = ?, supplierId = ?, keywordsJson = ?, headerJson = ?, linesJson = ?,
  updatedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, tmpl.Name, boolToInt(tmpl.Active), tmpl.SupplierID, string(keywordsJSON), string(headerJSON), string(linesJSON), tmpl.ID)
	return tmpl.ID, err
}

func (d *DB) GetTemplate(id int) (*internal.Template, error) {
	row := d.conn.QueryRow(`
SELECT id, name, active, supplierId, keywordsJson, headerJson, linesJson
FROM templates WHERE id = ?
`, id)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (d *DB) ListTemplates(activeOnly bool) ([]internal.Template, error) {
	query := `SELECT id, name, active, supplierId, keywordsJson, headerJson, linesJson FROM templates ORDER BY id`
	if activeOnly {
		query = `SELECT id, name, active, supplierId, keywordsJson, headerJson, linesJson FROM templates WHERE active = 1 ORDER BY id`
	}
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (internal.Template, error) {
	var tmpl internal.Template
	var active int
	var keywordsJSON, headerJSON, linesJSON string
	if err := row.Scan(&tmpl.ID, &tmpl.Name, &active, &tmpl.SupplierID, &keywordsJSON, &headerJSON, &linesJSON); err != nil {
		return internal.Template{}, err
	}
	tmpl.Active = active != 0
	_ = json.Unmarshal([]byte(keywordsJSON), &tmpl.DetectionKeywords)
	_ = json.Unmarshal([]byte(headerJSON), &tmpl.Header)
	_ = json.Unmarshal([]byte(linesJSON), &tmpl.Lines)
	return tmpl, nil
}

func (d *DB) UpsertProducts(products []internal.ProductRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO products (
  id, name, unit, supplierId, salePrice,
  code_sku, code_barcode, code_manufacturer,
  altCodes, updatedAt, raw_json, lastSeenAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  unit=excluded.unit,
  supplierId=excluded.supplierId,
  salePrice=excluded.salePrice,
  code_sku=excluded.code_sku,
  code_barcode=excluded.code_barcode,
  code_manufacturer=excluded.code_manufacturer,
  altCodes=excluded.altCodes,
  updatedAt=excluded.updatedAt,
  raw_json=excluded.raw_json,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		altJSON, _ := json.Marshal(p.AltCodes)
		if _, err := stmt.Exec(
			p.ID, p.Name, p.Unit, p.SupplierID, p.SalePrice,
			p.Codes.SKU, p.Codes.Barcode, p.Codes.Manufacturer,
			string(altJSON), p.UpdatedAt, p.RawJSON,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListProducts() ([]internal.ProductRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, name, unit, supplierId, salePrice,
       code_sku, code_barcode, code_manufacturer,
       altCodes, updatedAt, raw_json
FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductRecord
	for rows.Next() {
		var p internal.ProductRecord
		var altJSON string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Unit, &p.SupplierID, &p.SalePrice,
			&p.Codes.SKU, &p.Codes.Barcode, &p.Codes.Manufacturer,
			&altJSON, &p.UpdatedAt, &p.RawJSON,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(altJSON), &p.AltCodes)
		out = append(out, p)
	}

	return out, rows.Err()
}

func (d *DB) UpsertDocument(source, externalID, subject, sender, receivedAt, hash, rawRef, status string) (internal.DocumentRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO documents (source, externalId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, externalId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, source, externalID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.DocumentRow{}, err
	}

	row, err := d.GetDocumentBySourceExternalID(source, externalID)
	if err != nil {
		return internal.DocumentRow{}, err
	}
	if row == nil {
		return internal.DocumentRow{}, errors.New("failed to upsert document")
	}
	return *row, nil
}

func (d *DB) GetDocumentBySourceExternalID(source, externalID string) (*internal.DocumentRow, error) {
	var row internal.DocumentRow
	err := d.conn.QueryRow(`
SELECT id, source, externalId, subject, sender, receivedAt, hash, status, rawRef
FROM documents WHERE source = ? AND externalId = ?
`, source, externalID).Scan(
		&row.ID, &row.Source, &row.ExternalID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetDocumentByID(id int) (*internal.DocumentRow, error) {
	var row internal.DocumentRow
	err := d.conn.QueryRow(`
SELECT id, source, externalId, subject, sender, receivedAt, hash, status, rawRef
FROM documents WHERE id = ?
`, id).Scan(
		&row.ID, &row.Source, &row.ExternalID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListDocumentsByStatus(status string, limit int) ([]internal.DocumentRow, error) {
	rows, err := d.conn.Query(`
SELECT id, source, externalId, subject, sender, receivedAt, hash, status, rawRef
FROM documents WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DocumentRow
	for rows.Next() {
		var row internal.DocumentRow
		if err := rows.Scan(&row.ID, &row.Source, &row.ExternalID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateDocumentStatus(documentID int, status string) error {
	_, err := d.conn.Exec(`UPDATE documents SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, documentID)
	return err
}

// ClearDocumentProcessing removes any previous parse of the document so it
// can be reprocessed from scratch.
func (d *DB) ClearDocumentProcessing(documentID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var purchaseID int
	err = tx.QueryRow(`SELECT id FROM purchases WHERE documentId = ?`, documentID).Scan(&purchaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return tx.Commit()
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM purchase_items WHERE purchaseId = ?`, purchaseID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM purchases WHERE id = ?`, purchaseID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertPurchase(documentID int, templateID *int, result internal.ExtractionResult) (int64, error) {
	fieldErrorsJSON, _ := json.Marshal(result.FieldErrors)
	res, err := d.conn.Exec(`
INSERT INTO purchases (documentId, templateId, orderNumber, orderDate, total, fieldErrorsJson)
VALUES (?, ?, ?, ?, ?, ?)
`, documentID, templateID, result.OrderNumber, result.Date, result.Total, string(fieldErrorsJSON))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertPurchaseItem(purchaseID int64, item internal.LineItem, match internal.MatchResult) error {
	candidatesJSON, _ := json.Marshal(match.Candidates)
	var productID *int
	if match.Product != nil {
		productID = match.Product.ID
	}

	_, err := d.conn.Exec(`
INSERT INTO purchase_items (
  purchaseId, lineNo, rawLine, description, sku, quantity, unitPrice, lineTotal,
  matchStatus, confidence, matchReason, productId, candidatesJson
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, purchaseID, item.LineNo, item.RawLine, item.Description, item.SKU, item.Quantity, item.UnitPrice, item.LineTotal,
		string(match.Status), match.Confidence, string(match.Reason), productID, string(candidatesJSON))
	return err
}

func (d *DB) InsertRun(traceID string, documentID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, documentId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, documentID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) GetExportRows(documentID int) ([]internal.PurchaseExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  i.lineNo,
  i.rawLine,
  i.description,
  i.sku,
  i.quantity,
  i.unitPrice,
  i.lineTotal,
  i.matchStatus,
  i.confidence,
  i.matchReason,
  p.id,
  p.name,
  p.unit,
  p.code_sku,
  i.candidatesJson
FROM purchase_items i
JOIN purchases pu ON pu.id = i.purchaseId
LEFT JOIN products p ON p.id = i.productId
WHERE pu.documentId = ?
ORDER BY
  CASE i.matchStatus WHEN 'OK' THEN 1 WHEN 'REVIEW' THEN 2 ELSE 3 END,
  i.lineNo ASC
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PurchaseExportRow
	for rows.Next() {
		var row internal.PurchaseExportRow
		var candidatesJSON string
		if err := rows.Scan(
			&row.LineNo,
			&row.RawLine,
			&row.Description,
			&row.SKU,
			&row.Quantity,
			&row.UnitPrice,
			&row.LineTotal,
			&row.MatchStatus,
			&row.Confidence,
			&row.MatchReason,
			&row.ProductID,
			&row.ProductName,
			&row.ProductUnit,
			&row.ProductSKU,
			&candidatesJSON,
		); err != nil {
			return nil, err
		}

		var candidates []internal.MatchCandidate
		_ = json.Unmarshal([]byte(candidatesJSON), &candidates)
		if len(candidates) > 1 {
			row.Candidate2Name = util.StringPtr(candidates[1].Name)
			row.Candidate2Score = util.FloatPtr(candidates[1].Score)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
