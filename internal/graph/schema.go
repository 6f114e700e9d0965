package graph

// Schema is the static description of the business graph advertised to the
// language model, so generated Cypher targets known labels, relationships and
// property names.
const Schema = `Schema:
(:Transaction)-[:INVOLVES_PRODUCT]->(:Product)
(:Transaction)-[:FROM_VENDOR]->(:Vendor)
(:Transaction)-[:TO_CUSTOMER]->(:Customer)
(:Commission)-[:FROM_VENDOR]->(:Vendor)
(:Product {name, normalized_name, price, description})
(:Vendor {name, normalized_name})
(:Customer {name, normalized_name})
(:Transaction {transaction_id, type, amount, quantity, date, notes})
(:Commission {commission_id, amount, date, ref_id, notes})
Transaction.type is one of: purchase, sale, commission.`
