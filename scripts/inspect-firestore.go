//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

func main() {
	projectID := flag.String("project", "", "GCP project ID")
	collection := flag.String("collection", "events", "Firestore collection name")
	country := flag.String("country", "", "Filter by country code (optional)")
	view := flag.String("view", "", "Filter by view kind (optional)")
	limit := flag.Int("limit", 10, "Max documents to return (0 for all)")
	countOnly := flag.Bool("count", false, "Only show counts per country and view")
	flag.Parse()

	if *projectID == "" {
		log.Fatal("-project is required")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()

	coll := client.Collection(*collection)

	if *countOnly {
		showCounts(ctx, coll)
		return
	}

	var query firestore.Query = coll.Query
	if *country != "" {
		query = query.Where("country", "==", *country)
	}
	if *view != "" {
		query = query.Where("view", "==", *view)
	}
	if *limit > 0 {
		query = query.Limit(*limit)
	}

	iter := query.Documents(ctx)
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Error iterating documents: %v", err)
		}

		jsonData, _ := json.MarshalIndent(doc.Data(), "", "  ")
		fmt.Printf("--- Document: %s ---\n%s\n\n", doc.Ref.ID, string(jsonData))
		count++
	}

	fmt.Printf("Total documents shown: %d\n", count)
}

func showCounts(ctx context.Context, coll *firestore.CollectionRef) {
	counts := make(map[string]int)
	total := 0

	iter := coll.Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Error iterating documents: %v", err)
		}

		data := doc.Data()
		key := fmt.Sprintf("%v %v/%v", data["year"], data["country"], data["view"])
		counts[key]++
		total++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Events per year/country/view:")
	fmt.Println("--------------------")
	for _, k := range keys {
		fmt.Printf("%-40s %d\n", k, counts[k])
	}
	fmt.Println("--------------------")
	fmt.Printf("%-40s %d\n", "TOTAL", total)
}
