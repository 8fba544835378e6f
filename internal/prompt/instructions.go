package prompt

// instructions is printed at startup and by "?".
var instructions = []string{
	"Inputs:",
	"  Case does not matter",
	"  Numbers are validated before use",
	"    (if logLen is set to -5.2 it will be treated as 1)",
	"  If reading the source fails, 0 is shown",
	"  For inputs that set values, input key/name, then you will be prompted to set value",
	"",
	`  "quit": Quits`,
	`  "run": Run graph loop (press "q" to return here)`,
	`  "spf": Seconds per frame for graph, Default: 1`,
	`  "logLen": How many lines are recorded, Default: 20`,
	`  "numLen": Length of ending number, Default: 6`,
	`  "?": Reprint this`,
	`  "faults?": Print the most recent sampling faults`,
	"",
	`  "import": Import settings from file (.txt) (Will ask for file name)`,
	`  "doLog": Log or not, 1 = True, else False, Default: 0 (False)`,
	`  "log": Set path of log file, Default: "log.txt"`,
	`  "logMin": Lower value of logging range, Default: 0`,
	`  "logMax": Upper value of logging range, Default: 100`,
	`  "logInc": Log inside the range (if not, outside), 1 = True, else False, Default: 0 (False)`,
	"",
	`  "path": File path for data file, Default: (for thermal)`,
	`  "scale": Scale of return value, Default: 1000`,
	`  "method": Method for gathering info, Default: 0`,
	`  "methodInfo": Other info needed for gathering data, Default: ["0"]`,
	`  "type": Looks up paths saved in list for data file`,
	`  "type?": Print types in array noted above`,
	"",
	`  "barMin": Default: 20`,
	`  "barMax": Default: 100`,
	`  "barLen": number of chars in bar, Default: 50`,
	`  "barMed": Medium Threshold (0 to 1), Default: 0.7`,
	`  "barHi": High Threshold (0 to 1), Default: 0.85`,
	`  "barChr": Character used in bar, Default: "|"`,
	`  "barLoC": Low color, Default: 32 (green)`,
	`  "barMedC": Medium color, Default: 33 (yellow)`,
	`  "barHiC": High color, Default: 31 (red)`,
	`  "c?": Print color key`,
}
