package ingest

import "fmt"

// 各阶段 prompt 模板。输出契约与本包的 wire 结构一一对应；
// 生成服务包多余字段或围栏时由解码侧容忍
const classifyPromptTemplate = `You are a military planning-document classifier inside an operational planning system.

Classify the document below into exactly one hierarchy level:
- STRATEGY: national or theater strategic guidance (NDS, NMS, theater strategy, campaign plan)
- PLANNING: staff planning products (JIPTL prioritized target list, ACO airspace control order, SPINS, AOD)
- ORDER: tactical tasking orders (ATO, OPORD, FRAGO, TASKORD)

Also identify the message standard the document is written in:
USMTF, OTH_GOLD, NATO_ADATP3, JSON_FEED, or FREE_TEXT if no standard applies.

Respond with ONLY a JSON object, no commentary:
{
  "hierarchy_level": "STRATEGY | PLANNING | ORDER",
  "document_type": "short type code, e.g. NDS, CAMPAIGN_PLAN, JIPTL, ACO, SPINS, AOD, ATO, OPORD, FRAGO, TASKORD",
  "source_format": "USMTF | OTH_GOLD | NATO_ADATP3 | JSON_FEED | FREE_TEXT",
  "confidence": 0.0,
  "title": "document title",
  "issuing_authority": "issuing headquarters or authority",
  "effective_date": "effective date exactly as written in the document, or empty string"
}
%s
Document text:
---
%s
---`

const strategyExtractTemplate = `You are extracting structured data from a STRATEGY-level military guidance document.

Extract the document metadata and its ranked strategic priorities.
Ranks are positive integers, 1 is highest. Keep dates exactly as written.

Respond with ONLY a JSON object, no commentary:
{
  "title": "document title",
  "doc_type": "short type code, e.g. NDS, THEATER_STRATEGY, CAMPAIGN_PLAN",
  "authority_level": "issuing headquarters or authority",
  "content": "the document body text, cleaned of markup but otherwise verbatim",
  "effective_date": "effective date exactly as written, or empty string",
  "priorities": [
    {
      "rank": 1,
      "effect": "desired effect, e.g. DETER, DEGRADE, DEFEND",
      "description": "what this priority covers",
      "justification": "why it matters, or empty string"
    }
  ]
}

Document text:
---
%s
---`

const planningExtractTemplate = `You are extracting structured data from a PLANNING-level military staff product
(for example a JIPTL prioritized target list, an ACO, SPINS, or an AOD).

Extract the document metadata and its ranked priorities. When an entry references
a BE number or target identifier, carry it in target_id. Ranks are positive
integers, 1 is highest. Keep dates exactly as written.

Respond with ONLY a JSON object, no commentary:
{
  "title": "document title",
  "doc_type": "short type code, e.g. JIPTL, ACO, SPINS, AOD",
  "authority_level": "issuing headquarters or authority",
  "content": "the document body text, cleaned of markup but otherwise verbatim",
  "effective_date": "effective date exactly as written, or empty string",
  "priorities": [
    {
      "rank": 1,
      "effect": "desired effect, e.g. DESTROY, NEUTRALIZE, DEGRADE",
      "description": "target or objective description",
      "justification": "why it is prioritized, or empty string",
      "target_id": "BE number or target identifier, or empty string"
    }
  ]
}

Document text:
---
%s
---`

const orderExtractTemplate = `You are extracting the complete mission tree from an ORDER-level military tasking document
(ATO, OPORD, FRAGO, or TASKORD).

Extract the order metadata and every mission package, mission, waypoint, time window,
target, support requirement, and space-capability need. Keep dates and times exactly
as written (the system understands ISO dates and military DTG such as 021200ZJAN26).
Latitude and longitude are decimal degrees. If a value is absent, use an empty
string or omit the field; never invent data.

Closed vocabularies:
- waypoint type: IP, CP, TGT, EGRESS, REFUEL, HOLD
- time window type: VUL, TOT, ONSTA, REFUEL
- support type: TANKER, SEAD, ESCORT, EW, ISR, CSAR
- space capability type: GPS, SATCOM, ISR_COLLECTION, MISSILE_WARNING, WEATHER

Respond with ONLY a JSON object, no commentary:
{
  "order_type": "ATO | OPORD | FRAGO | TASKORD",
  "order_code": "order designator, e.g. ATO CHARLIE",
  "issuing_authority": "issuing headquarters",
  "classification": "security marking, e.g. UNCLASSIFIED",
  "effective_start": "start of the effective period as written, or empty string",
  "effective_end": "end of the effective period as written, or empty string",
  "ato_day_number": 1,
  "mission_packages": [
    {
      "package_name": "package name",
      "description": "package purpose, or empty string",
      "missions": [
        {
          "mission_number": "mission number",
          "callsign": "callsign",
          "platform": "airframe or platform, e.g. F-16C",
          "unit_designation": "tasked unit",
          "mission_type": "e.g. OCA, DCA, SEAD, CAS",
          "waypoints": [
            {"seq": 1, "type": "IP", "name": "waypoint name", "latitude": 0.0, "longitude": 0.0, "altitude_ft": 20000, "time_over": "as written"}
          ],
          "time_windows": [
            {"type": "VUL", "start_time": "as written", "end_time": "as written"}
          ],
          "targets": [
            {"target_id": "BE number if given", "name": "target name", "description": "target description", "latitude": 0.0, "longitude": 0.0, "priority_rank": 1, "desired_effect": "e.g. DESTROY"}
          ],
          "support_requirements": [
            {"type": "TANKER", "description": "what is needed", "provider_callsign": "providing callsign if named"}
          ],
          "space_needs": [
            {"type": "SATCOM", "description": "what is needed", "window_start": "as written", "window_end": "as written"}
          ]
        }
      ]
    }
  ]
}

Document text:
---
%s
---`

func buildClassifyPrompt(rawText, formatHint string) string {
	hint := ""
	if formatHint != "" {
		hint = fmt.Sprintf("\nCaller hint (advisory only): the source format is probably %s.\n", formatHint)
	}
	return fmt.Sprintf(classifyPromptTemplate, hint, rawText)
}

func buildStrategyPrompt(rawText string) string {
	return fmt.Sprintf(strategyExtractTemplate, rawText)
}

func buildPlanningPrompt(rawText string) string {
	return fmt.Sprintf(planningExtractTemplate, rawText)
}

func buildOrderPrompt(rawText string) string {
	return fmt.Sprintf(orderExtractTemplate, rawText)
}
