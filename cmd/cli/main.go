package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "catalogue":
		showCatalogue(args)
	case "buy":
		handleBuy(args)
	case "validate":
		validateLesson(args)
	case "me":
		handleMe(args)
	case "seed":
		seedCatalogue(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: knowledgehub auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *email)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// showCatalogue prints the full theme/cursus/lesson tree
func showCatalogue(args []string) {
	_ = args
	resp, err := http.Get(getAPIURL() + "/catalogue")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var themes []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Cursuses []struct {
			ID      string  `json:"id"`
			Title   string  `json:"title"`
			Price   float64 `json:"price"`
			Lessons []struct {
				ID    string  `json:"id"`
				Title string  `json:"title"`
				Price float64 `json:"price"`
			} `json:"lessons"`
		} `json:"cursuses"`
	}
	json.NewDecoder(resp.Body).Decode(&themes)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, t := range themes {
		fmt.Fprintf(w, "%s\t\t%s\n", t.Title, t.ID)
		for _, c := range t.Cursuses {
			fmt.Fprintf(w, "  %s\t%.2f EUR\t%s\n", c.Title, c.Price, c.ID)
			for _, l := range c.Lessons {
				fmt.Fprintf(w, "    %s\t%.2f EUR\t%s\n", l.Title, l.Price, l.ID)
			}
		}
	}
	w.Flush()
}

func handleBuy(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: knowledgehub buy <lesson|cursus> <id>")
		return
	}

	kind := args[0]
	id := args[1]
	var path string
	switch kind {
	case "lesson":
		path = "/checkout/lessons/" + id
	case "cursus":
		path = "/checkout/cursuses/" + id
	default:
		fmt.Printf("unknown item kind: %s\n", kind)
		return
	}

	// Start a checkout session, then confirm immediately. Against a real
	// provider the confirmation would follow the redirect; in local session
	// mode this completes the whole flow.
	session := postJSON(path, map[string]string{})
	if session == nil {
		return
	}
	sessionID, _ := session["id"].(string)
	fmt.Printf("checkout session: %s\n", sessionID)

	var confirmPath string
	if kind == "lesson" {
		confirmPath = "/payments/lessons/" + id + "/confirm"
	} else {
		confirmPath = "/payments/cursuses/" + id + "/confirm"
	}
	result := postJSON(confirmPath, map[string]string{"sessionId": sessionID})
	if result != nil {
		fmt.Printf("✓ Purchase recorded: %v\n", result)
	}
}

func validateLesson(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: knowledgehub validate <lesson-id>")
		return
	}

	result := postJSON("/lessons/"+args[0]+"/validate", map[string]string{})
	if result == nil {
		return
	}
	outcome, _ := result["outcome"].(string)
	switch outcome {
	case "certificationGranted":
		fmt.Println("✓ Lesson validated. Cursus complete, certification granted!")
	case "alreadyValidated":
		fmt.Println("Lesson was already validated")
	default:
		fmt.Println("✓ Lesson validated")
	}
}

func handleMe(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: knowledgehub me <purchases|certifications>")
		return
	}

	var path string
	switch args[0] {
	case "purchases":
		path = "/me/purchases"
	case "certifications":
		path = "/me/certifications"
	default:
		fmt.Printf("unknown me command: %s\n", args[0])
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var items []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&items)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if args[0] == "purchases" {
		fmt.Fprintln(w, "KIND\tLESSON\tCURSUS\tCREATED")
		for _, p := range items {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", p["kind"], p["lessonId"], p["cursusId"], p["createdAt"])
		}
	} else {
		fmt.Fprintln(w, "CURSUS\tOBTAINED")
		for _, c := range items {
			fmt.Fprintf(w, "%v\t%v\n", c["cursusId"], c["obtainedAt"])
		}
	}
	w.Flush()
}

// seedLesson is one lesson of the demo catalogue
type seedLesson struct {
	title string
	price float64
}

type seedCursus struct {
	title   string
	price   float64
	lessons []seedLesson
}

type seedTheme struct {
	title    string
	cursuses []seedCursus
}

// demoCatalogue is the standard demo content set.
var demoCatalogue = []seedTheme{
	{title: "Musique", cursuses: []seedCursus{
		{title: "Cursus d'initiation à la guitare", price: 50, lessons: []seedLesson{
			{title: "Découverte de l'instrument", price: 26},
			{title: "Les accords et les gammes", price: 26},
		}},
		{title: "Cursus d'initiation au piano", price: 50, lessons: []seedLesson{
			{title: "Découverte de l'instrument", price: 26},
			{title: "Les accords et les gammes", price: 26},
		}},
	}},
	{title: "Informatique", cursuses: []seedCursus{
		{title: "Cursus d'initiation au développement web", price: 60, lessons: []seedLesson{
			{title: "Les langages Html et CSS", price: 32},
			{title: "Dynamiser votre site avec Javascript", price: 32},
		}},
	}},
	{title: "Jardinage", cursuses: []seedCursus{
		{title: "Cursus d'initiation au jardinage", price: 30, lessons: []seedLesson{
			{title: "Les outils du jardinier", price: 16},
			{title: "Jardiner avec la lune", price: 16},
		}},
	}},
	{title: "Cuisine", cursuses: []seedCursus{
		{title: "Cursus d'initiation à la cuisine", price: 44, lessons: []seedLesson{
			{title: "Les modes de cuisson", price: 23},
			{title: "Les saveurs", price: 23},
		}},
		{title: "Cursus d'art du dressage culinaire", price: 48, lessons: []seedLesson{
			{title: "Mettre en œuvre le style dans l'assiette", price: 26},
			{title: "Harmoniser un repas à quatre plats", price: 26},
		}},
	}},
}

// seedCatalogue creates the demo catalogue through the admin API. Requires
// being logged in as an admin.
func seedCatalogue(args []string) {
	_ = args
	for _, t := range demoCatalogue {
		theme := postJSON("/admin/themes", map[string]any{"title": t.title})
		if theme == nil {
			return
		}
		themeID, _ := theme["id"].(string)
		fmt.Printf("✓ Theme: %s\n", t.title)

		for _, c := range t.cursuses {
			cursus := postJSON("/admin/cursuses", map[string]any{
				"themeId": themeID,
				"title":   c.title,
				"price":   c.price,
			})
			if cursus == nil {
				return
			}
			cursusID, _ := cursus["id"].(string)
			fmt.Printf("  ✓ Cursus: %s (%.2f EUR)\n", c.title, c.price)

			for i, l := range c.lessons {
				lesson := postJSON("/admin/lessons", map[string]any{
					"cursusId": cursusID,
					"title":    l.title,
					"price":    l.price,
					"position": i + 1,
				})
				if lesson == nil {
					return
				}
				fmt.Printf("    ✓ Lesson: %s (%.2f EUR)\n", l.title, l.price)
			}
		}
	}
	fmt.Println("✓ Demo catalogue seeded")
}

// Helper functions
func postJSON(path string, payload any) map[string]interface{} {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode >= 400 {
		fmt.Printf("✗ %s failed (%d): %v\n", path, resp.StatusCode, result)
		return nil
	}
	return result
}

func getAPIURL() string {
	if url := os.Getenv("KNOWLEDGEHUB_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.knowledgehub/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.knowledgehub", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`KnowledgeHub CLI

Usage:
  knowledgehub <command> [options]

Commands:
  auth       User authentication (register, login, logout, who)
  catalogue  Show the theme/cursus/lesson catalogue
  buy        Buy a lesson or cursus (buy <lesson|cursus> <id>)
  validate   Validate a completed lesson (validate <lesson-id>)
  me         Show your purchases or certifications
  seed       Seed the demo catalogue (admin token required)
  help       Show this help message

Environment Variables:
  KNOWLEDGEHUB_API    API endpoint (default: http://localhost:8080/api)

Examples:
  knowledgehub auth register -email user@example.com -password secret123
  knowledgehub catalogue
  knowledgehub buy cursus <cursus-id>
  knowledgehub validate <lesson-id>
  knowledgehub me certifications
`)
}
