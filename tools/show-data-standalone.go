package main

import (
	"fmt"
	"os"
	"time"

	"gce-instance-manager/pkg/models"
	"gce-instance-manager/pkg/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: show-data <node-id> [records-file]")
		fmt.Println("   or: show-data all [records-file]")
		os.Exit(1)
	}

	path := ""
	if len(os.Args) > 2 {
		path = os.Args[2]
	}
	store := storage.NewFileStorage(path)

	if os.Args[1] == "all" {
		records, err := store.ListNodes()
		if err != nil {
			fmt.Printf("Error loading nodes: %v\n", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			fmt.Printf("No nodes found in %s.\n", store.Location())
			return
		}

		fmt.Printf("=== All Stored Nodes (%d total) ===\n\n", len(records))
		for i, record := range records {
			fmt.Printf("Node %d:\n", i+1)
			printNodeDetails(record)
			fmt.Println()
		}
		return
	}

	id := os.Args[1]
	record, err := store.GetNode(id)
	if err != nil {
		fmt.Printf("Node %s not found: %v\n", id, err)
		os.Exit(1)
	}

	fmt.Println("=== Node Communication Details ===")
	printNodeDetails(record)
}

func printNodeDetails(record *models.NodeRecord) {
	fmt.Printf("Node ID: %s\n", record.ID)
	fmt.Printf("Group: %s\n", record.Group)
	fmt.Printf("Machine Type: %s\n", record.MachineType)
	fmt.Printf("Zone: %s\n", record.Zone)
	fmt.Printf("Username: %s\n", record.Username)

	fmt.Println("Network Details:")
	if record.PublicIP != "" {
		fmt.Printf("   Public IP: %s\n", record.PublicIP)
		fmt.Printf("   SSH Command: %s\n", record.GetSSHCommand(""))
	} else {
		fmt.Println("   Public IP: Not assigned yet (node may be starting)")
	}

	if record.PrivateIP != "" {
		fmt.Printf("   Private IP: %s\n", record.PrivateIP)
	}

	fmt.Printf("Status: %s\n", record.Status)
	fmt.Printf("Created At: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", record.Duration)

	if record.ExpiresAt.IsZero() {
		fmt.Println("Expires At: never")
		return
	}
	fmt.Printf("Expires At: %s\n", record.ExpiresAt.Format("2006-01-02 15:04:05"))

	if record.IsExpired() {
		fmt.Println("Status: EXPIRED")
	} else {
		timeLeft := time.Until(record.ExpiresAt).Round(time.Second)
		fmt.Printf("Time Remaining: %s\n", timeLeft)
	}
}
