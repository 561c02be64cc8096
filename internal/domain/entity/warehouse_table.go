package entity

// AggregationDateColumn is the trailing column of every warehouse table
const AggregationDateColumn = "aggregation_date"

// WarehouseTable describes one target table. Columns are ordered and always
// end with AggregationDateColumn; KeyColumns is the natural grouping key
// without the aggregation date.
type WarehouseTable struct {
	Name       string
	Columns    []string
	KeyColumns []string
	DDL        string
}

// PrimaryKey returns the natural key followed by the aggregation date
func (t WarehouseTable) PrimaryKey() []string {
	key := make([]string, 0, len(t.KeyColumns)+1)
	key = append(key, t.KeyColumns...)
	return append(key, AggregationDateColumn)
}

// ValueColumns returns the columns that are not part of the primary key
func (t WarehouseTable) ValueColumns() []string {
	pk := make(map[string]struct{}, len(t.KeyColumns)+1)
	for _, c := range t.PrimaryKey() {
		pk[c] = struct{}{}
	}

	var cols []string
	for _, c := range t.Columns {
		if _, ok := pk[c]; !ok {
			cols = append(cols, c)
		}
	}
	return cols
}

var DoctorAppointmentsTable = WarehouseTable{
	Name:       "doctor_appointments_agg",
	Columns:    []string{"doctor_id", "doctor_name", "specialty", "appointment_count", AggregationDateColumn},
	KeyColumns: []string{"doctor_id"},
	DDL: `CREATE TABLE IF NOT EXISTS doctor_appointments_agg (
	doctor_id VARCHAR(255),
	doctor_name VARCHAR(255),
	specialty VARCHAR(255),
	appointment_count INTEGER,
	aggregation_date DATE,
	PRIMARY KEY (doctor_id, aggregation_date)
)`,
}

var AppointmentFrequencyTable = WarehouseTable{
	Name:       "appointment_frequency_agg",
	Columns:    []string{"date", "appointment_count", AggregationDateColumn},
	KeyColumns: []string{"date"},
	DDL: `CREATE TABLE IF NOT EXISTS appointment_frequency_agg (
	date DATE,
	appointment_count INTEGER,
	aggregation_date DATE,
	PRIMARY KEY (date, aggregation_date)
)`,
}

var SymptomsBySpecialtyTable = WarehouseTable{
	Name:       "symptoms_by_specialty_agg",
	Columns:    []string{"specialty", "symptom", "occurrence_count", AggregationDateColumn},
	KeyColumns: []string{"specialty", "symptom"},
	DDL: `CREATE TABLE IF NOT EXISTS symptoms_by_specialty_agg (
	specialty VARCHAR(255),
	symptom VARCHAR(255),
	occurrence_count INTEGER,
	aggregation_date DATE,
	PRIMARY KEY (specialty, symptom, aggregation_date)
)`,
}

// WarehouseTables lists every target table in load order
func WarehouseTables() []WarehouseTable {
	return []WarehouseTable{DoctorAppointmentsTable, AppointmentFrequencyTable, SymptomsBySpecialtyTable}
}
