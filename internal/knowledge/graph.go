package knowledge

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Entity is one node of the knowledge graph.
type Entity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Category    string   `json:"category,omitempty"`
	Level       int      `json:"level,omitempty"`
	Items       []string `json:"items,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
}

// Relationship is one directed edge of the knowledge graph.
type Relationship struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	SourceName string  `json:"source_name"`
	TargetName string  `json:"target_name"`
	Confidence float64 `json:"confidence"`
	Origin     string  `json:"origin"`
}

// GraphBuilder constructs the knowledge graph from the processed axes.
type GraphBuilder struct {
	inputDir  string
	outputDir string
	timestamp string
	logger    *zap.Logger

	entities      map[string]*Entity
	entityOrder   []string
	relationships []Relationship
}

// NewGraphBuilder reads ontologies and parsings under inputDir and writes
// graph artifacts to outputDir.
func NewGraphBuilder(inputDir, outputDir, timestamp string, logger *zap.Logger) *GraphBuilder {
	return &GraphBuilder{
		inputDir:  inputDir,
		outputDir: outputDir,
		timestamp: timestamp,
		logger:    logger,
		entities:  map[string]*Entity{},
	}
}

// BuildAll extracts entities and relationships and writes the graph in all
// supported formats: JSON, Cypher, GraphML and an adjacency matrix.
func (b *GraphBuilder) BuildAll() error {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if err := b.extractFromOntologies(); err != nil {
		return err
	}
	if err := b.extractFromParsings(); err != nil {
		return err
	}
	if err := b.extractTextualRelationships(); err != nil {
		return err
	}
	b.inferTypeHierarchy()

	if err := b.writeGraphJSON(); err != nil {
		return err
	}
	if err := b.writeCypher(); err != nil {
		return err
	}
	if err := b.writeGraphML(); err != nil {
		return err
	}
	if err := b.writeRelationshipMatrix(); err != nil {
		return err
	}
	if err := b.writeMetadata(); err != nil {
		return err
	}

	b.logger.Info("knowledge graph construction complete",
		zap.Int("entities", len(b.entities)),
		zap.Int("relationships", len(b.relationships)))
	return nil
}

var entityIDPattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NormalizeEntityID turns a display name into a stable graph node ID.
func NormalizeEntityID(name string) string {
	return entityIDPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

func (b *GraphBuilder) addEntity(e *Entity) {
	if _, ok := b.entities[e.ID]; ok {
		return
	}
	b.entities[e.ID] = e
	b.entityOrder = append(b.entityOrder, e.ID)
}

func (b *GraphBuilder) addRelationship(sourceID, targetID, relType string, confidence float64, origin string) {
	src, ok1 := b.entities[sourceID]
	dst, ok2 := b.entities[targetID]
	if !ok1 || !ok2 || b.relationshipExists(sourceID, targetID, relType) {
		return
	}
	b.relationships = append(b.relationships, Relationship{
		Source:     sourceID,
		Target:     targetID,
		Type:       relType,
		SourceName: src.Name,
		TargetName: dst.Name,
		Confidence: confidence,
		Origin:     origin,
	})
}

func (b *GraphBuilder) relationshipExists(source, target, relType string) bool {
	for _, rel := range b.relationships {
		if rel.Source == source && rel.Target == target && rel.Type == relType {
			return true
		}
	}
	return false
}

func (b *GraphBuilder) extractFromOntologies() error {
	var concepts struct {
		Items []OntologyItem `json:"items"`
	}
	if err := readJSONIfPresent(filepath.Join(b.inputDir, "ontologies", "concepts", "concepts.json"), &concepts); err != nil {
		return err
	}
	for _, item := range concepts.Items {
		if item.Term == "" {
			continue
		}
		b.addEntity(&Entity{
			ID:       NormalizeEntityID(item.Term),
			Name:     item.Term,
			Type:     "concept",
			Category: item.Category,
			Source:   "ontology_concepts",
		})
	}

	var taxonomies struct {
		Items []OntologyItem `json:"items"`
	}
	if err := readJSONIfPresent(filepath.Join(b.inputDir, "ontologies", "taxonomies", "taxonomies.json"), &taxonomies); err != nil {
		return err
	}
	for _, item := range taxonomies.Items {
		if item.Name == "" {
			continue
		}
		b.addEntity(&Entity{
			ID:     NormalizeEntityID(item.Name),
			Name:   item.Name,
			Type:   "taxonomy",
			Items:  item.Items,
			Source: "ontology_taxonomies",
		})
	}

	var frameworks struct {
		Items []OntologyItem `json:"items"`
	}
	if err := readJSONIfPresent(filepath.Join(b.inputDir, "ontologies", "frameworks", "frameworks.json"), &frameworks); err != nil {
		return err
	}
	for _, item := range frameworks.Items {
		if item.Type == "" {
			continue
		}
		b.addEntity(&Entity{
			ID:          NormalizeEntityID(item.Type),
			Name:        item.Type,
			Type:        "framework",
			Description: item.Description,
			Source:      "ontology_frameworks",
		})
	}

	return nil
}

func (b *GraphBuilder) extractFromParsings() error {
	files, err := findByExt(filepath.Join(b.inputDir, "parsings", "markdown"), ".json")
	if err != nil {
		return err
	}
	for _, path := range files {
		doc, err := loadParsed(path)
		if err != nil {
			b.logger.Warn("skipping unreadable parsing", zap.String("path", path), zap.Error(err))
			continue
		}
		for _, heading := range doc.Headings {
			if len(heading.Text) <= 3 {
				continue
			}
			b.addEntity(&Entity{
				ID:     NormalizeEntityID(heading.Text),
				Name:   heading.Text,
				Type:   "topic",
				Level:  heading.Level,
				Source: doc.OriginalPath,
			})
		}
		for _, concept := range doc.Concepts {
			b.addEntity(&Entity{
				ID:     NormalizeEntityID(concept),
				Name:   concept,
				Type:   "extracted_concept",
				Source: doc.OriginalPath,
			})
		}
	}
	return nil
}

// relationPatterns map verb phrases in prose to typed graph edges.
var relationPatterns = []struct {
	re      *regexp.Regexp
	relType string
}{
	{regexp.MustCompile(`(?i)\b(?:uses|utilizes|employs)\b`), "USES"},
	{regexp.MustCompile(`(?i)\b(?:includes|contains|comprises)\b`), "INCLUDES"},
	{regexp.MustCompile(`(?i)\b(?:implements|realizes|executes)\b`), "IMPLEMENTS"},
	{regexp.MustCompile(`(?i)\b(?:is|are)\s+(?:a|an)\b`), "IS_A"},
	{regexp.MustCompile(`(?i)\b(?:connects?\s+to|integrates?\s+with)\b`), "CONNECTS_TO"},
}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// extractTextualRelationships scans document prose for sentences of the form
// "<entity> <verb phrase> <entity>" and records the typed edge.
func (b *GraphBuilder) extractTextualRelationships() error {
	files, err := findByExt(filepath.Join(b.inputDir, "parsings", "markdown"), ".json")
	if err != nil {
		return err
	}
	for _, path := range files {
		doc, err := loadParsed(path)
		if err != nil {
			continue
		}
		for _, sentence := range sentenceSplit.Split(doc.Content, -1) {
			b.scanSentence(sentence)
		}
	}
	return nil
}

type mention struct {
	id    string
	start int
	end   int
}

func (b *GraphBuilder) scanSentence(sentence string) {
	if len(sentence) < 10 {
		return
	}
	lower := strings.ToLower(sentence)

	var mentions []mention
	for _, id := range b.entityOrder {
		name := strings.ToLower(b.entities[id].Name)
		if len(name) <= 3 {
			continue
		}
		if idx := strings.Index(lower, name); idx >= 0 {
			mentions = append(mentions, mention{id: id, start: idx, end: idx + len(name)})
		}
	}
	if len(mentions) < 2 {
		return
	}
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].start < mentions[j].start })

	for _, pattern := range relationPatterns {
		loc := pattern.re.FindStringIndex(sentence)
		if loc == nil {
			continue
		}
		var source, target string
		for _, m := range mentions {
			if m.end <= loc[0] {
				source = m.id
			}
			if m.start >= loc[1] && target == "" {
				target = m.id
			}
		}
		if source != "" && target != "" && source != target {
			b.addRelationship(source, target, pattern.relType, 0.7, "text_analysis")
		}
	}
}

// inferTypeHierarchy adds a category node per entity type and a BELONGS_TO
// edge from each entity to its category.
func (b *GraphBuilder) inferTypeHierarchy() {
	seen := map[string]bool{}
	members := map[string][]string{}
	for _, id := range b.entityOrder {
		t := b.entities[id].Type
		seen[t] = true
		members[t] = append(members[t], id)
	}
	for _, t := range sortedKeys(seen) {
		if len(members[t]) < 2 {
			continue
		}
		categoryID := "category_" + NormalizeEntityID(t)
		b.addEntity(&Entity{
			ID:     categoryID,
			Name:   t,
			Type:   "category",
			Source: "type_hierarchy",
		})
		for _, id := range members[t] {
			b.addRelationship(id, categoryID, "BELONGS_TO", 0.9, "type_hierarchy")
		}
	}
}

func (b *GraphBuilder) sortedEntities() []*Entity {
	ids := make([]string, len(b.entityOrder))
	copy(ids, b.entityOrder)
	sort.Strings(ids)
	entities := make([]*Entity, 0, len(ids))
	for _, id := range ids {
		entities = append(entities, b.entities[id])
	}
	return entities
}

func (b *GraphBuilder) writeGraphJSON() error {
	nodes := b.sortedEntities()

	nodeTypes := map[string]int{}
	for _, node := range nodes {
		nodeTypes[node.Type]++
	}
	edgeTypes := map[string]int{}
	for _, rel := range b.relationships {
		edgeTypes[rel.Type]++
	}

	edges := b.relationships
	if edges == nil {
		edges = []Relationship{}
	}

	graph := map[string]any{
		"nodes": nodes,
		"edges": edges,
		"statistics": map[string]any{
			"node_count": len(nodes),
			"edge_count": len(edges),
			"node_types": nodeTypes,
			"edge_types": edgeTypes,
		},
		"metadata": map[string]any{
			"generated_at": b.timestamp,
			"format":       "property_graph",
		},
	}
	return writeJSON(filepath.Join(b.outputDir, "knowledge_graph.json"), graph)
}

func (b *GraphBuilder) writeCypher() error {
	var sb strings.Builder
	sb.WriteString("// Knowledge graph import script\n")
	sb.WriteString("// Generated at " + b.timestamp + "\n\n")

	for _, node := range b.sortedEntities() {
		sb.WriteString(fmt.Sprintf("CREATE (%s:Entity {name: %q, type: %q});\n",
			node.ID, node.Name, node.Type))
	}
	sb.WriteString("\n")
	for _, rel := range b.relationships {
		sb.WriteString(fmt.Sprintf(
			"MATCH (a:Entity {name: %q}), (b:Entity {name: %q}) CREATE (a)-[:%s {confidence: %.2f}]->(b);\n",
			rel.SourceName, rel.TargetName, rel.Type, rel.Confidence))
	}
	return os.WriteFile(filepath.Join(b.outputDir, "knowledge_graph.cypher"), []byte(sb.String()), 0o644)
}

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func (b *GraphBuilder) writeGraphML() error {
	doc := graphMLDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphMLKey{
			{ID: "name", For: "node", AttrName: "name", AttrType: "string"},
			{ID: "type", For: "node", AttrName: "type", AttrType: "string"},
			{ID: "relationship", For: "edge", AttrName: "relationship", AttrType: "string"},
			{ID: "confidence", For: "edge", AttrName: "confidence", AttrType: "double"},
		},
		Graph: graphMLGraph{ID: "knowledge_graph", EdgeDefault: "directed"},
	}
	for _, node := range b.sortedEntities() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{
			ID: node.ID,
			Data: []graphMLData{
				{Key: "name", Value: node.Name},
				{Key: "type", Value: node.Type},
			},
		})
	}
	for i, rel := range b.relationships {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			ID:     fmt.Sprintf("e%d", i),
			Source: rel.Source,
			Target: rel.Target,
			Data: []graphMLData{
				{Key: "relationship", Value: rel.Type},
				{Key: "confidence", Value: fmt.Sprintf("%.2f", rel.Confidence)},
			},
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graphml: %w", err)
	}
	content := xml.Header + string(data) + "\n"
	return os.WriteFile(filepath.Join(b.outputDir, "knowledge_graph.graphml"), []byte(content), 0o644)
}

func (b *GraphBuilder) writeRelationshipMatrix() error {
	nodes := b.sortedEntities()
	index := map[string]int{}
	ids := make([]string, len(nodes))
	names := make([]string, len(nodes))
	for i, node := range nodes {
		index[node.ID] = i
		ids[i] = node.ID
		names[i] = node.Name
	}

	matrix := make([][]int, len(nodes))
	for i := range matrix {
		matrix[i] = make([]int, len(nodes))
	}
	for _, rel := range b.relationships {
		matrix[index[rel.Source]][index[rel.Target]] = 1
	}

	out := map[string]any{
		"entity_ids":   ids,
		"entity_list":  names,
		"matrix":       matrix,
		"generated_at": b.timestamp,
	}
	return writeJSON(filepath.Join(b.outputDir, "relationship_matrix.json"), out)
}

func (b *GraphBuilder) writeMetadata() error {
	meta := map[string]any{
		"generated_at":       b.timestamp,
		"entity_count":       len(b.entities),
		"relationship_count": len(b.relationships),
		"formats":            []string{"json", "cypher", "graphml", "matrix"},
	}
	return writeJSON(filepath.Join(b.outputDir, "graph_metadata.json"), meta)
}

// readJSONIfPresent decodes path into v, treating a missing file as empty.
func readJSONIfPresent(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
