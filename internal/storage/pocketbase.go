package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"actas/internal/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	pbModels "github.com/pocketbase/pocketbase/models"
	"github.com/pocketbase/pocketbase/models/schema"
)

const (
	collectionActas     = "actas"
	collectionAnomalies = "anomalies"
)

type PocketBaseStore struct {
	app *pocketbase.PocketBase
}

func NewPocketBaseStore(dataDir, httpAddr string) (*PocketBaseStore, error) {
	// Create a new PocketBase instance with a data directory
	app := pocketbase.New()

	app.RootCmd.SetArgs([]string{"serve", "--dir", dataDir, "--http", httpAddr})

	// Start PocketBase in a goroutine
	go func() {
		if err := app.Start(); err != nil {
			log.Printf("Failed to start PocketBase: %v", err)
		}
	}()

	// Give PocketBase a moment to initialize
	time.Sleep(time.Second)

	// Initialize the app
	if err := app.Bootstrap(); err != nil {
		return nil, fmt.Errorf("failed to bootstrap PocketBase: %w", err)
	}

	if err := ensureCollections(app); err != nil {
		return nil, fmt.Errorf("failed to ensure collections exist: %w", err)
	}

	return &PocketBaseStore{app: app}, nil
}

func ensureCollections(app *pocketbase.PocketBase) error {
	if _, err := app.Dao().FindCollectionByNameOrId(collectionActas); err != nil {
		collection := &pbModels.Collection{
			Name:       collectionActas,
			Type:       pbModels.CollectionTypeBase,
			CreateRule: nil,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "jrv",
					Type:     schema.FieldTypeNumber,
					Required: true,
				},
				&schema.SchemaField{
					Name:     "department_code",
					Type:     schema.FieldTypeText,
					Required: true,
				},
				&schema.SchemaField{
					Name: "department",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "municipality",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "center",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name:     "state",
					Type:     schema.FieldTypeSelect,
					Required: true,
					Options: &schema.SelectOptions{
						MaxSelect: 1,
						Values: []string{
							models.AuditStatePublished,
							models.AuditStateUnpublished,
						},
					},
				},
				&schema.SchemaField{
					Name: "valid_votes",
					Type: schema.FieldTypeNumber,
				},
				&schema.SchemaField{
					Name: "blank_votes",
					Type: schema.FieldTypeNumber,
				},
				&schema.SchemaField{
					Name: "null_votes",
					Type: schema.FieldTypeNumber,
				},
				&schema.SchemaField{
					Name: "total_votes",
					Type: schema.FieldTypeNumber,
				},
				&schema.SchemaField{
					Name: "has_scan",
					Type: schema.FieldTypeBool,
				},
				&schema.SchemaField{
					Name:     "payload",
					Type:     schema.FieldTypeText,
					Required: true,
				},
				&schema.SchemaField{
					Name: "updated_at",
					Type: schema.FieldTypeText,
				},
			),
		}

		if err := app.Dao().SaveCollection(collection); err != nil {
			return fmt.Errorf("failed to save actas collection: %w", err)
		}
	}

	if _, err := app.Dao().FindCollectionByNameOrId(collectionAnomalies); err != nil {
		collection := &pbModels.Collection{
			Name:       collectionAnomalies,
			Type:       pbModels.CollectionTypeBase,
			CreateRule: nil,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "jrv",
					Type:     schema.FieldTypeNumber,
					Required: true,
				},
				&schema.SchemaField{
					Name:     "class",
					Type:     schema.FieldTypeSelect,
					Required: true,
					Options: &schema.SelectOptions{
						MaxSelect: 1,
						Values: []string{
							string(models.AnomalyMissingParse),
							string(models.AnomalyBlank),
						},
					},
				},
				&schema.SchemaField{
					Name: "department",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "detail",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "detected_at",
					Type: schema.FieldTypeText,
				},
			),
		}

		if err := app.Dao().SaveCollection(collection); err != nil {
			return fmt.Errorf("failed to save anomalies collection: %w", err)
		}
	}

	return nil
}

// SaveActa inserts or replaces the record for the acta's JRV.
func (s *PocketBaseStore) SaveActa(acta *models.Acta) error {
	collection, err := s.app.Dao().FindCollectionByNameOrId(collectionActas)
	if err != nil {
		return fmt.Errorf("failed to find collection: %w", err)
	}

	record, err := s.app.Dao().FindFirstRecordByData(collectionActas, "jrv", acta.JRV)
	if err != nil {
		record = pbModels.NewRecord(collection)
	}

	payload, err := json.Marshal(acta)
	if err != nil {
		return fmt.Errorf("failed to marshal acta: %w", err)
	}

	record.Set("jrv", acta.JRV)
	record.Set("department_code", acta.Geography.DepartmentCode)
	record.Set("department", acta.Geography.DepartmentName)
	record.Set("municipality", acta.Geography.MunicipalityName)
	record.Set("center", acta.Geography.CenterName)
	record.Set("state", acta.Audit.State)
	record.Set("valid_votes", acta.Stats.ValidVotes)
	record.Set("blank_votes", acta.Stats.BlankVotes)
	record.Set("null_votes", acta.Stats.NullVotes)
	record.Set("total_votes", acta.Stats.TotalVotes)
	record.Set("has_scan", acta.Documents.HasScan)
	record.Set("payload", string(payload))
	record.Set("updated_at", time.Now().UTC().Format(time.RFC3339))

	if err := s.app.Dao().SaveRecord(record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// UpdateActa replaces the stored record for an existing JRV.
func (s *PocketBaseStore) UpdateActa(jrv int, acta *models.Acta) error {
	if _, err := s.app.Dao().FindFirstRecordByData(collectionActas, "jrv", jrv); err != nil {
		return fmt.Errorf("failed to find acta for jrv %d: %w", jrv, err)
	}
	acta.JRV = jrv
	return s.SaveActa(acta)
}

// ActaExists reports whether a record for the JRV is already stored.
func (s *PocketBaseStore) ActaExists(jrv int) bool {
	_, err := s.app.Dao().FindFirstRecordByData(collectionActas, "jrv", jrv)
	return err == nil
}

// GetActa fetches the parsed record for a JRV.
func (s *PocketBaseStore) GetActa(jrv int) (*models.Acta, error) {
	record, err := s.app.Dao().FindFirstRecordByData(collectionActas, "jrv", jrv)
	if err != nil {
		return nil, fmt.Errorf("failed to find acta for jrv %d: %w", jrv, err)
	}
	return decodeActa(record)
}

// ListActas fetches all stored records, optionally filtered by department code.
func (s *PocketBaseStore) ListActas(departmentCode string) ([]models.Acta, error) {
	var exprs []dbx.Expression
	if departmentCode != "" {
		exprs = append(exprs, dbx.HashExp{"department_code": departmentCode})
	}

	records, err := s.app.Dao().FindRecordsByExpr(collectionActas, exprs...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actas: %w", err)
	}

	actas := make([]models.Acta, 0, len(records))
	for _, record := range records {
		acta, err := decodeActa(record)
		if err != nil {
			return nil, err
		}
		actas = append(actas, *acta)
	}
	return actas, nil
}

// CountActas returns the number of stored records.
func (s *PocketBaseStore) CountActas() (int, error) {
	records, err := s.app.Dao().FindRecordsByExpr(collectionActas)
	if err != nil {
		return 0, fmt.Errorf("failed to count actas: %w", err)
	}
	return len(records), nil
}

// DeleteActa removes the record for a JRV.
func (s *PocketBaseStore) DeleteActa(jrv int) error {
	record, err := s.app.Dao().FindFirstRecordByData(collectionActas, "jrv", jrv)
	if err != nil {
		return fmt.Errorf("failed to find acta for jrv %d: %w", jrv, err)
	}
	if err := s.app.Dao().DeleteRecord(record); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// SaveAnomaly stores one anomaly flag.
func (s *PocketBaseStore) SaveAnomaly(anomaly *models.Anomaly) error {
	collection, err := s.app.Dao().FindCollectionByNameOrId(collectionAnomalies)
	if err != nil {
		return fmt.Errorf("failed to find collection: %w", err)
	}

	record := pbModels.NewRecord(collection)
	record.Set("jrv", anomaly.JRV)
	record.Set("class", string(anomaly.Class))
	record.Set("department", anomaly.Department)
	record.Set("detail", anomaly.Detail)
	record.Set("detected_at", anomaly.DetectedAt.UTC().Format(time.RFC3339))

	if err := s.app.Dao().SaveRecord(record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// ListAnomalies fetches stored anomalies, optionally filtered by class.
func (s *PocketBaseStore) ListAnomalies(class models.AnomalyClass) ([]models.Anomaly, error) {
	var exprs []dbx.Expression
	if class != "" {
		exprs = append(exprs, dbx.HashExp{"class": string(class)})
	}

	records, err := s.app.Dao().FindRecordsByExpr(collectionAnomalies, exprs...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anomalies: %w", err)
	}

	anomalies := make([]models.Anomaly, 0, len(records))
	for _, record := range records {
		detectedAt, err := time.Parse(time.RFC3339, record.GetString("detected_at"))
		if err != nil {
			log.Printf("Invalid detected_at on anomaly record %s: %v", record.Id, err)
		}
		anomalies = append(anomalies, models.Anomaly{
			ID:         record.Id,
			JRV:        record.GetInt("jrv"),
			Class:      models.AnomalyClass(record.GetString("class")),
			Department: record.GetString("department"),
			Detail:     record.GetString("detail"),
			DetectedAt: detectedAt,
		})
	}
	return anomalies, nil
}

// ReplaceAnomalies drops all stored anomalies and saves the given set.
// Quality sweeps recompute the full flag list, so a partial update would
// leave stale flags behind.
func (s *PocketBaseStore) ReplaceAnomalies(anomalies []models.Anomaly) error {
	records, err := s.app.Dao().FindRecordsByExpr(collectionAnomalies)
	if err != nil {
		return fmt.Errorf("failed to fetch anomalies: %w", err)
	}
	for _, record := range records {
		if err := s.app.Dao().DeleteRecord(record); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
	}

	for i := range anomalies {
		if err := s.SaveAnomaly(&anomalies[i]); err != nil {
			return fmt.Errorf("failed to save anomaly for jrv %d: %w", anomalies[i].JRV, err)
		}
	}
	return nil
}

func decodeActa(record *pbModels.Record) (*models.Acta, error) {
	var acta models.Acta
	if err := json.Unmarshal([]byte(record.GetString("payload")), &acta); err != nil {
		return nil, fmt.Errorf("failed to decode acta payload for jrv %d: %w", record.GetInt("jrv"), err)
	}
	return &acta, nil
}
