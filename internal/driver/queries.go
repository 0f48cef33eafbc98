package driver

// Event properties mirror model.CatalogRecord. Times are fixed-width UTC
// strings so ORDER BY created_at follows insertion order.
const eventReturn = `
		RETURN e.id AS id,
			e.title AS title,
			e.description AS description,
			e.date AS date,
			e.location AS location,
			e.price AS price,
			e.image_hash AS image_hash,
			e.raw_text AS raw_text,
			e.source_url AS source_url,
			e.parsed_by_ai AS parsed_by_ai,
			e.created_at AS created_at
		ORDER BY e.created_at, e.id
	`

const (
	CreateEventQuery = `
		CREATE (e:Event {id: $id})
		SET e.title = $title,
			e.description = $description,
			e.date = $date,
			e.location = $location,
			e.price = $price,
			e.image_hash = $image_hash,
			e.raw_text = $raw_text,
			e.source_url = $source_url,
			e.parsed_by_ai = $parsed_by_ai,
			e.created_at = $created_at
		RETURN e.id AS id
	`

	ListEventsQuery = `
		MATCH (e:Event)` + eventReturn

	ListFingerprintedEventsQuery = `
		MATCH (e:Event)
		WHERE e.image_hash IS NOT NULL` + eventReturn
)

var EventIndexQueries = []string{
	"CREATE CONSTRAINT ON (e:Event) ASSERT e.id IS UNIQUE;",
	"CREATE INDEX ON :Event(id);",
	"CREATE INDEX ON :Event(image_hash);",
	"CREATE INDEX ON :Event(created_at);",
}
