package database

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS equipments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  serial_number TEXT NOT NULL UNIQUE,
  location TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS preventive_plans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  equipment_id INTEGER NOT NULL REFERENCES equipments(id) ON DELETE CASCADE,
  frequency_days INTEGER NOT NULL CHECK (frequency_days > 0),
  next_due_date TEXT NOT NULL,
  activities TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  last_completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_plans_equipment ON preventive_plans(equipment_id);
CREATE INDEX IF NOT EXISTS idx_plans_due ON preventive_plans(next_due_date);

CREATE TABLE IF NOT EXISTS corrective_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  equipment_id INTEGER NOT NULL REFERENCES equipments(id) ON DELETE CASCADE,
  description TEXT NOT NULL,
  failure_start TEXT NOT NULL,
  repair_end TEXT NOT NULL,
  root_cause TEXT NOT NULL,
  actions_taken TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_corrective_equipment ON corrective_records(equipment_id, failure_start);
CREATE INDEX IF NOT EXISTS idx_corrective_start ON corrective_records(failure_start);

CREATE TABLE IF NOT EXISTS activity_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  equipment_id INTEGER,
  message TEXT NOT NULL,
  details TEXT
);
CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_activity_category ON activity_log(category);
`)
	return err
}
