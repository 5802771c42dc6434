package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// taskView matches the API task JSON
type taskView struct {
	ID         string `json:"id"`
	MACAddress string `json:"mac_address"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[37m"
)

func main() {
	apiURL := os.Getenv("WAKEQUEUE_API")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	fmt.Println(colorBlue + "wakequeue task monitor" + colorReset)
	fmt.Println(colorGray + "Polling " + apiURL + "/api/tasks for state changes..." + colorReset)
	fmt.Println("--------------------------------------------------------------")

	client := &http.Client{Timeout: 5 * time.Second}
	lastStatus := map[string]string{}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		tasks, err := fetchTasks(client, apiURL)
		if err != nil {
			fmt.Printf(colorRed+"poll failed: %v"+colorReset+"\n", err)
			continue
		}

		for _, t := range tasks {
			prev, known := lastStatus[t.ID]
			if known && prev == t.Status {
				continue
			}
			lastStatus[t.ID] = t.Status
			prettify(t, known)
		}
	}
}

func fetchTasks(client *http.Client, apiURL string) ([]taskView, error) {
	resp, err := client.Get(apiURL + "/api/tasks")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var payload struct {
		Tasks []taskView `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

func prettify(t taskView, known bool) {
	short := t.ID
	if len(short) > 8 {
		short = short[:8]
	}

	switch t.Status {
	case "pending":
		if !known {
			fmt.Printf("[%s] "+colorYellow+"Queued:"+colorReset+"     %s\n", short, t.MACAddress)
		}
	case "processing":
		fmt.Printf("[%s] "+colorBlue+"Waking:"+colorReset+"     %s (attempt %d)\n", short, t.MACAddress, t.Attempts)
	case "success":
		fmt.Printf("[%s] "+colorGreen+"Awake:"+colorReset+"      %s\n", short, t.MACAddress)
	case "failed":
		fmt.Printf("[%s] "+colorRed+"Unreachable:"+colorReset+" %s (attempt %d)\n", short, t.MACAddress, t.Attempts)
	}
}
