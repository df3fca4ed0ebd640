package models

import "encoding/json"

// HostSnapshot is the document written by the host-status collector.
type HostSnapshot struct {
	Distribution Distribution         `json:"distribution"`
	Processors   []ProcessorInfo      `json:"processors"`
	Memory       MemoryInfo           `json:"memory"`
	ProcessInfo  ProcessInfo          `json:"process_info"`
	Processes    ProcessTable         `json:"processes"`
	Users        map[string][]Session `json:"users"`
}

// Distribution describes the OS, kernel and hardware platform.
type Distribution struct {
	OS                string `json:"OS"`
	Hostname          string `json:"hostname"`
	Release           string `json:"release"`
	Version           string `json:"version"`
	Machine           string `json:"machine"`
	Processor         string `json:"processor"`
	LinuxDistribution string `json:"linux-distribution"`
	LinuxVersion      string `json:"linux-version"`
	LinuxCodename     string `json:"linux-codename"`
	Architecture      string `json:"architecture"`
}

// ProcessorInfo holds the key/value pairs of one /proc/cpuinfo record.
type ProcessorInfo map[string]string

// MemoryInfo is the /proc/meminfo table with the quick summary nested under "quick".
type MemoryInfo struct {
	Fields map[string]string
	Quick  QuickMemory
}

// MarshalJSON flattens Fields next to the "quick" key.
func (m MemoryInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	out["quick"] = m.Quick
	return json.Marshal(out)
}

// QuickMemory is the condensed memory/swap summary taken from free(1), in megabytes.
// TotalSpace, TotalUsed and TotalFree are string concatenations of the memory
// and swap fields unless numeric totals are enabled.
type QuickMemory struct {
	TotalMemory  string `json:"total-memory"`
	TotalSwap    string `json:"total-swap"`
	TotalSpace   string `json:"total-space"`
	UsedMemory   string `json:"used-memory"`
	UsedSwap     string `json:"used-swap"`
	TotalUsed    string `json:"total-used"`
	FreeMemory   string `json:"free-mem"`
	FreeSwap     string `json:"free-swap"`
	TotalFree    string `json:"total-free"`
	SharedMemory string `json:"shared-memory"`
	BufferMemory string `json:"buffer-memory"`
	CachedMemory string `json:"cached-memory"`
}

// ProcessInfo is the top(1) header summary.
type ProcessInfo struct {
	Uptime       string         `json:"uptime"`
	NumUsers     int            `json:"num users"`
	LoadAverage1 float64        `json:"load average 1"`
	LoadAverage2 float64        `json:"load average 2"`
	LoadAverage3 float64        `json:"load average 3"`
	Tasks        TaskCounts     `json:"tasks"`
	CPU          CPUPercentages `json:"cpu"`
}

// TaskCounts is the task count by state.
type TaskCounts struct {
	Total    int `json:"total"`
	Running  int `json:"running"`
	Sleeping int `json:"sleeping"`
	Stopped  int `json:"stopped"`
	Zombie   int `json:"zombie"`
}

// CPUPercentages is the CPU time breakdown in percent.
type CPUPercentages struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Nice   float64 `json:"nice"`
	Idle   float64 `json:"idle"`
	IOWait float64 `json:"IO wait"`
	HI     float64 `json:"HI"`
	SI     float64 `json:"SI"`
	ST     float64 `json:"ST"`
}

// ProcessColumns are the top(1) process columns, in output order.
var ProcessColumns = []string{
	"pid", "user", "priority", "nice", "virtual", "resident_memory",
	"shr", "s", "%cpu", "memory", "time", "command",
}

// ProcessTable is the process list stored by column: column name -> one value per process.
type ProcessTable map[string][]string

// NewProcessTable returns a table with every column present and empty.
func NewProcessTable() ProcessTable {
	t := make(ProcessTable, len(ProcessColumns))
	for _, c := range ProcessColumns {
		t[c] = []string{}
	}
	return t
}

// Rows returns the number of process rows.
func (t ProcessTable) Rows() int {
	return len(t[ProcessColumns[0]])
}

// Session is one logged-in session from w(1).
type Session struct {
	TTY       string `json:"tty"`
	Host      string `json:"host"`
	LoginTime string `json:"login time"`
	IdleTime  string `json:"idle time"`
	JCPU      string `json:"JCPU"`
	PCPU      string `json:"PCPU"`
	Command   string `json:"command"`
}
