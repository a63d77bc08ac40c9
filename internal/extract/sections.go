package extract

// Section is one output table. Its name is both the answer field that feeds
// it and the CSV file stem.
type Section struct {
	Name    string
	Columns []string
}

var Sections = []Section{
	{"paper_details", []string{"DOI", "Title"}},
	{"study_summary", []string{"Purpose", "Method", "Findings"}},
	{"built_environment_aspect", []string{"built_environment_aspect"}},
	{"study_area", []string{"Country", "City"}},
	{"extent_scale", []string{"extent_scale"}},
	{"spatial_data_aggregation_unit", []string{"spatial_data_aggregation_unit"}},
	{"image_data", []string{"Type_of_image_data", "Image_data_source", "Number_Volume_of_images"}},
	{"sampling_interval_distance", []string{"sampling_interval_distance"}},
	{"subjective_perception_data", []string{"Subjective_data_source", "Subjective_data_collection_method", "Number_of_participants"}},
	{"other_sensory_data", []string{"Other_sensory_data_type", "Other_sensory_data_source"}},
	{"research_type_and_method", []string{"Type_of_research", "Data_collection", "Data_processing", "Analysis"}},
	{"analysis_type", []string{"Type_of_analysis"}},
	{"computer_vision_models", []string{"Model_architecture_name", "Purpose", "Training_procedure"}},
	{"code_availability", []string{"Code_availability"}},
	{"data_availability", []string{"Data_availability"}},
	{"ethical_approval", []string{"Ethical_approval"}},
	{"study_limitations_and_future_research", []string{"Limitations", "Future_research_opportunities"}},
}

// SectionByName finds a section of the fixed list.
func SectionByName(name string) (Section, bool) {
	for _, s := range Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}
