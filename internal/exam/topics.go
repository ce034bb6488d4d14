package exam

// TopicConfig is one row of the static thematic-unit table. Critical topics
// carry a maximum-error ceiling that fails the exam on its own.
type TopicConfig struct {
	ID        int    `json:"id"` // 1..11
	Name      string `json:"name"`
	Quota     int    `json:"quota"`      // questions per exam
	MaxErrors int    `json:"max_errors"` // -1 when no ceiling applies
	Critical  bool   `json:"critical"`
}

// Topics is the official PER distribution: 45 questions across 11 thematic
// units, with error ceilings on balizamiento, RIPA and carta de navegación.
// Load-time reference data, never mutated by the engine.
var Topics = []TopicConfig{
	{ID: 1, Name: "Nomenclatura náutica", Quota: 4, MaxErrors: -1},
	{ID: 2, Name: "Elementos de amarre y fondeo", Quota: 2, MaxErrors: -1},
	{ID: 3, Name: "Seguridad en la mar", Quota: 4, MaxErrors: -1},
	{ID: 4, Name: "Legislación", Quota: 2, MaxErrors: -1},
	{ID: 5, Name: "Balizamiento", Quota: 5, MaxErrors: 2, Critical: true},
	{ID: 6, Name: "Reglamento internacional para prevenir abordajes (RIPA)", Quota: 10, MaxErrors: 5, Critical: true},
	{ID: 7, Name: "Maniobra y navegación", Quota: 2, MaxErrors: -1},
	{ID: 8, Name: "Emergencias en la mar", Quota: 3, MaxErrors: -1},
	{ID: 9, Name: "Meteorología", Quota: 4, MaxErrors: -1},
	{ID: 10, Name: "Teoría de navegación", Quota: 5, MaxErrors: -1},
	{ID: 11, Name: "Carta de navegación", Quota: 4, MaxErrors: 2, Critical: true},
}

// TotalQuestions is the fixed exam length, the sum of all quotas.
func TotalQuestions(topics []TopicConfig) int {
	n := 0
	for _, t := range topics {
		n += t.Quota
	}
	return n
}

// TopicByID returns the config row for a topic id, or nil.
func TopicByID(topics []TopicConfig, id int) *TopicConfig {
	for i := range topics {
		if topics[i].ID == id {
			return &topics[i]
		}
	}
	return nil
}
