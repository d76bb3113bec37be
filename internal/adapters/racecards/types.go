package racecards

// DTOs del export diario de racecards. Nesting exacto del archivo:
// región → venue → hora de salida → carrera.

// exportFile es el documento completo de una fecha.
type exportFile map[string]map[string]map[string]rawRace

// rawRace es una carrera tal cual viene en el export.
type rawRace struct {
	RaceName string      `json:"race_name"`
	RaceTime string      `json:"race_time"`
	Distance string      `json:"distance"`
	Prize    string      `json:"prize"`
	Runners  []rawRunner `json:"runners"`
}

// rawRunner es un participante tal cual viene en el export.
// Todos los campos son strings: el export no distingue tipos.
type rawRunner struct {
	Number          string `json:"number"`
	Name            string `json:"name"`
	Form            string `json:"form"`
	Age             string `json:"age"`
	Lbs             string `json:"lbs"`
	Jockey          string `json:"jockey"`
	Trainer         string `json:"trainer"`
	TrainerLocation string `json:"trainer_location"`
	TrainerRTF      string `json:"trainer_rtf"`
	OFR             string `json:"ofr"`
	RPR             string `json:"rpr"`
	TS              string `json:"ts"`
	LastRun         string `json:"last_run"`
}
